package bank

import (
	"math/rand/v2"
	"time"

	"github.com/pavelanni/examsim/internal/model"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// FilterByTags returns the questions whose tags intersect tagIDs.
// The input slice is not modified.
func FilterByTags(questions []model.Question, tagIDs []int) []model.Question {
	want := make(map[int]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = struct{}{}
	}
	var out []model.Question
	for _, q := range questions {
		for _, t := range q.Tags {
			if _, ok := want[t]; ok {
				out = append(out, q)
				break
			}
		}
	}
	return out
}

// Draw returns a uniform sample of n distinct questions from pool.
// A nil rng draws non-reproducibly.
func Draw(pool []model.Question, n int, rng *rand.Rand) ([]model.Question, error) {
	if len(pool) < n {
		return nil, &InsufficientError{Available: len(pool), Required: n}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	perm := rng.Perm(len(pool))
	out := make([]model.Question, n)
	for i := range n {
		out[i] = pool[perm[i]]
	}
	return out, nil
}
