// Package scoring turns tiered question scoring into point totals and
// per-category breakdowns.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/shuffle"
)

// ErrInvalidPosition is returned for a display position outside 0-3.
var ErrInvalidPosition = errors.New("invalid display position")

// PointsLookup maps an original option to the points it earns.
type PointsLookup map[model.OptionID]int

// TierLookup maps an original option to its scoring tier.
type TierLookup map[model.OptionID]model.Tier

// BuildPointsLookup flattens a tiered scoring block into option → points.
func BuildPointsLookup(scoring [4]model.TierScore) PointsLookup {
	lookup := make(PointsLookup, len(scoring))
	for _, ts := range scoring {
		lookup[ts.Option] = ts.Points
	}
	return lookup
}

// BuildTierLookup inverts a scoring block into option → tier.
func BuildTierLookup(scoring [4]model.TierScore) TierLookup {
	lookup := make(TierLookup, len(scoring))
	for tier, ts := range scoring {
		lookup[ts.Option] = model.Tier(tier)
	}
	return lookup
}

// ResolveScore returns the points for the option shown at display position pos.
func ResolveScore(lookup PointsLookup, mapping shuffle.Mapping, pos int) (int, error) {
	opt, ok := mapping.Option(pos)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
	}
	points, ok := lookup[opt]
	if !ok {
		return 0, fmt.Errorf("%w: option %s has no score", ErrInvalidPosition, opt)
	}
	return points, nil
}

// Item is one drawn question with its display mapping and point lookup.
type Item struct {
	Question model.Question
	Mapping  shuffle.Mapping
	Points   PointsLookup
}

// NewItem builds the scoring item for a question shown with mapping.
func NewItem(q model.Question, mapping shuffle.Mapping) Item {
	return Item{Question: q, Mapping: mapping, Points: BuildPointsLookup(q.Scoring)}
}

// Earned returns the points earned on item; unanswered items earn 0.
func Earned(item Item, answers model.Answers) int {
	a, ok := answers[item.Question.ID]
	if !ok {
		return 0
	}
	points, err := ResolveScore(item.Points, item.Mapping, a.Position)
	if err != nil {
		slog.Warn("ignoring unresolvable answer", "question", item.Question.ID, "position", a.Position, "error", err)
		return 0
	}
	return points
}

// ScoreSession sums the earned points over all items.
func ScoreSession(items []Item, answers model.Answers) int {
	total := 0
	for _, item := range items {
		total += Earned(item, answers)
	}
	return total
}

// IsPassing reports whether total meets the pass mark.
func IsPassing(total int) bool {
	return total >= model.PassMark
}

// NameResolver resolves a question's tags to category names.
type NameResolver interface {
	NamesFor(q model.Question) []string
}

// CategoryBreakdown credits each question's earned points and a full
// MaxPointsPerQuestion to every category it is tagged with. Categories
// overlap, so their sums need not equal the session total.
// Cumulative values equal session values until merged with a history.
func CategoryBreakdown(items []Item, answers model.Answers, names NameResolver) model.Breakdown {
	var b model.Breakdown
	index := make(map[string]int)
	for _, item := range items {
		earned := Earned(item, answers)
		for _, name := range names.NamesFor(item.Question) {
			i, ok := index[name]
			if !ok {
				i = len(b)
				index[name] = i
				b = append(b, model.CategoryScore{Name: name})
			}
			b[i].SessionPoints += earned
			b[i].SessionMax += model.MaxPointsPerQuestion
		}
	}
	for i := range b {
		b[i].CumulativePoints = b[i].SessionPoints
		b[i].CumulativeMax = b[i].SessionMax
	}
	return b
}

// MergeHistorical returns a new breakdown with cumulative = session + historical.
// Categories only present in h are appended with zero session values.
// A nil history leaves cumulative equal to session.
func MergeHistorical(b model.Breakdown, h *model.History) model.Breakdown {
	out := make(model.Breakdown, 0, len(b))
	var hist map[string]model.CategoryTotal
	if h != nil {
		hist = h.Lookup()
	}
	inSession := make(map[string]struct{}, len(b))
	for _, c := range b {
		inSession[c.Name] = struct{}{}
		prev := hist[c.Name]
		out = append(out, model.CategoryScore{
			Name:             c.Name,
			SessionPoints:    c.SessionPoints,
			SessionMax:       c.SessionMax,
			CumulativePoints: c.SessionPoints + prev.CumulativePoints,
			CumulativeMax:    c.SessionMax + prev.CumulativeMax,
		})
	}
	if h == nil {
		return out
	}
	for _, c := range h.Categories {
		if _, ok := inSession[c.Name]; ok {
			continue
		}
		inSession[c.Name] = struct{}{}
		out = append(out, model.CategoryScore{
			Name:             c.Name,
			CumulativePoints: c.CumulativePoints,
			CumulativeMax:    c.CumulativeMax,
		})
	}
	return out
}
