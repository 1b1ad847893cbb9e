package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		points, max int
		want        float64
	}{
		{"zero max", 3, 0, 0},
		{"half", 5, 10, 50},
		{"full", 10, 10, 100},
		{"thirds round", 1, 3, 33.33},
		{"two thirds round", 2, 3, 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.points, tt.max))
		})
	}
}

func TestTierNames(t *testing.T) {
	for _, tier := range Tiers {
		got, ok := ParseTier(tier.String())
		assert.True(t, ok)
		assert.Equal(t, tier, got)
	}
	assert.Equal(t, "why_second_best", TierSecondBest.RationaleKey())
	_, ok := ParseTier("worst")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Tier(9).String())
}

func TestOptionReviews(t *testing.T) {
	q := QuestionResult{
		Options:  map[OptionID]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		Selected: OptionC,
		Points:   map[OptionID]int{"A": 0, "B": 3, "C": 5, "D": 1},
		Tiers:    map[OptionID]Tier{"A": TierDistractor, "B": TierSecondBest, "C": TierBest, "D": TierThirdBest},
		Rationale: map[string]string{
			"why_best":        "best because",
			"why_second_best": "close",
			"why_third_best":  "partial",
			"why_distractor":  "wrong",
		},
	}
	rows := q.OptionReviews()
	assert.Len(t, rows, 4)
	assert.Equal(t, OptionA, rows[0].Option)
	assert.Equal(t, "wrong", rows[0].Rationale)
	assert.Equal(t, "best because", rows[2].Rationale)
	assert.True(t, rows[2].Selected)
	assert.False(t, rows[1].Selected)
	assert.True(t, q.Answered())
	assert.False(t, QuestionResult{}.Answered())
}

func TestHistorySetKeepsOrder(t *testing.T) {
	var h History
	h.Set(CategoryTotal{Name: "X", CumulativePoints: 1, CumulativeMax: 5})
	h.Set(CategoryTotal{Name: "Y", CumulativePoints: 2, CumulativeMax: 5})
	h.Set(CategoryTotal{Name: "X", CumulativePoints: 6, CumulativeMax: 10})

	assert.Equal(t, []CategoryTotal{
		{Name: "X", CumulativePoints: 6, CumulativeMax: 10},
		{Name: "Y", CumulativePoints: 2, CumulativeMax: 5},
	}, h.Categories)
	assert.Equal(t, 6, h.Lookup()["X"].CumulativePoints)
}

func TestBreakdownGet(t *testing.T) {
	b := Breakdown{{Name: "X", SessionPoints: 5, SessionMax: 10}}
	c, ok := b.Get("X")
	assert.True(t, ok)
	assert.Equal(t, 50.0, c.SessionPercent())
	_, ok = b.Get("Z")
	assert.False(t, ok)
	assert.Equal(t, []string{"X"}, b.Names())
}
