package model

import (
	"math"
	"time"
)

const (
	// QuestionsPerSession is the fixed number of questions drawn for one session.
	QuestionsPerSession = 8
	// MaxPointsPerQuestion is the value of a best-tier answer.
	MaxPointsPerQuestion = 5
	// MaxScore is the highest total a session can reach.
	MaxScore = QuestionsPerSession * MaxPointsPerQuestion
	// PassMark is the minimum total needed to pass (60% of MaxScore).
	PassMark = 24
	// TimeLimitMinutes is the session budget in minutes.
	TimeLimitMinutes = 90
	// TimeLimit is the session budget.
	TimeLimit = TimeLimitMinutes * time.Minute
	// Extension is the one-time amount of extra time a session may take.
	Extension = 10 * time.Minute
	// ExtensionWindow is how close to expiry the extension becomes available.
	ExtensionWindow = 5 * time.Minute
	// ScenarioSnippetLen caps the scenario text written to a scorecard.
	ScenarioSnippetLen = 100
)

// OptionID identifies one of the four answer options of a question.
type OptionID string

const (
	OptionA OptionID = "A"
	OptionB OptionID = "B"
	OptionC OptionID = "C"
	OptionD OptionID = "D"
)

// OptionIDs lists the option identifiers in canonical order.
var OptionIDs = [4]OptionID{OptionA, OptionB, OptionC, OptionD}

// Valid reports whether o is one of A-D.
func (o OptionID) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Tier is a scoring tier of a question.
type Tier int

const (
	TierBest Tier = iota
	TierSecondBest
	TierThirdBest
	TierDistractor
)

// Tiers lists the scoring tiers from best to worst.
var Tiers = [4]Tier{TierBest, TierSecondBest, TierThirdBest, TierDistractor}

var tierNames = [4]string{"best", "second_best", "third_best", "distractor"}

func (t Tier) String() string {
	if t < TierBest || t > TierDistractor {
		return "unknown"
	}
	return tierNames[t]
}

// RationaleKey returns the rationale entry explaining options in this tier.
func (t Tier) RationaleKey() string {
	return "why_" + t.String()
}

// ParseTier maps a tier name as used in question banks to a Tier.
func ParseTier(s string) (Tier, bool) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), true
		}
	}
	return 0, false
}

// TierScore pairs the option assigned to a tier with its point value.
type TierScore struct {
	Option OptionID `json:"option"`
	Points int      `json:"points"`
}

// Question is a validated multiple-choice question.
// Scoring is indexed by Tier.
type Question struct {
	ID        int                 `json:"id"`
	Scenario  string              `json:"scenario"`
	Text      string              `json:"question"`
	Options   map[OptionID]string `json:"options"`
	Scoring   [4]TierScore        `json:"scoring"`
	Tags      []int               `json:"tags"`
	Rationale map[string]string   `json:"rationale"`
}

// Tag is one row of the tag reference table.
type Tag struct {
	ID       int
	Name     string
	Category string
}

// Answer is the committed selection for one question.
type Answer struct {
	Position int      // display position that was selected
	Option   OptionID // original option at that position
	Points   int
}

// Answers maps question ID to its committed answer. A missing entry means unanswered.
type Answers map[int]Answer

// CategoryScore holds per-category session and cumulative points.
type CategoryScore struct {
	Name             string
	SessionPoints    int
	SessionMax       int
	CumulativePoints int
	CumulativeMax    int
}

// SessionPercent returns SessionPoints as a percentage of SessionMax.
func (c CategoryScore) SessionPercent() float64 {
	return Percent(c.SessionPoints, c.SessionMax)
}

// CumulativePercent returns CumulativePoints as a percentage of CumulativeMax.
func (c CategoryScore) CumulativePercent() float64 {
	return Percent(c.CumulativePoints, c.CumulativeMax)
}

// Percent returns points/max*100 rounded to two decimals, or 0 when max is 0.
func Percent(points, max int) float64 {
	if max == 0 {
		return 0
	}
	return math.Round(float64(points)/float64(max)*100*100) / 100
}

// Breakdown is an ordered list of category scores.
type Breakdown []CategoryScore

// Get returns the entry for the named category.
func (b Breakdown) Get(name string) (CategoryScore, bool) {
	for _, c := range b {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}

// Names returns the category names in breakdown order.
func (b Breakdown) Names() []string {
	names := make([]string, len(b))
	for i, c := range b {
		names[i] = c.Name
	}
	return names
}

// CategoryTotal is a cumulative category total carried between sessions.
type CategoryTotal struct {
	Name             string
	CumulativePoints int
	CumulativeMax    int
}

// History is the cumulative category summary read back from a scorecard.
type History struct {
	Categories []CategoryTotal
}

// Lookup returns the totals keyed by category name.
func (h *History) Lookup() map[string]CategoryTotal {
	m := make(map[string]CategoryTotal, len(h.Categories))
	for _, c := range h.Categories {
		m[c.Name] = c
	}
	return m
}

// Set adds or replaces the total for a category, keeping first-seen order.
func (h *History) Set(total CategoryTotal) {
	for i, c := range h.Categories {
		if c.Name == total.Name {
			h.Categories[i] = total
			return
		}
	}
	h.Categories = append(h.Categories, total)
}

// ExamConfig holds runtime exam parameters set via CLI flags and config.
// The draw size and time limit are fixed by QuestionsPerSession and
// TimeLimit so that MaxScore and PassMark always hold.
type ExamConfig struct {
	Extension       time.Duration
	ExtensionWindow time.Duration
	Seed            *uint64 // nil means non-reproducible draws
}

// DefaultExamConfig returns the standard exam parameters.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		Extension:       Extension,
		ExtensionWindow: ExtensionWindow,
	}
}
