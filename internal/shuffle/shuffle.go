// Package shuffle randomizes question order and per-question option order.
package shuffle

import (
	"math/rand/v2"

	"github.com/pavelanni/examsim/internal/model"
)

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// orFresh returns rng, or a freshly seeded source when rng is nil.
func orFresh(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Questions returns a new slice holding qs in random order. qs is not modified.
func Questions(qs []model.Question, rng *rand.Rand) []model.Question {
	r := orFresh(rng)
	out := make([]model.Question, len(qs))
	for i, j := range r.Perm(len(qs)) {
		out[i] = qs[j]
	}
	return out
}

// DisplayOption is an option as presented at a display position.
type DisplayOption struct {
	Option   model.OptionID
	Text     string
	Position int
}

// Mapping translates a display position (0-3) to the original option.
type Mapping [4]model.OptionID

// Option returns the original option shown at pos.
func (m Mapping) Option(pos int) (model.OptionID, bool) {
	if pos < 0 || pos >= len(m) {
		return "", false
	}
	return m[pos], true
}

// Position returns the display position of an original option.
func (m Mapping) Position(opt model.OptionID) (int, bool) {
	for i, o := range m {
		if o == opt {
			return i, true
		}
	}
	return -1, false
}

// Valid reports whether m is a bijection over A-D.
func (m Mapping) Valid() bool {
	seen := make(map[model.OptionID]bool, len(m))
	for _, o := range m {
		if !o.Valid() || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

// Options shuffles the options of q for display and returns the position mapping.
func Options(q model.Question, rng *rand.Rand) ([]DisplayOption, Mapping) {
	r := orFresh(rng)
	ids := model.OptionIDs
	r.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	var m Mapping
	opts := make([]DisplayOption, len(ids))
	for pos, id := range ids {
		m[pos] = id
		opts[pos] = DisplayOption{Option: id, Text: q.Options[id], Position: pos}
	}
	return opts, m
}
