package model

import "time"

// Results is the frozen outcome of a submitted session and the sole input to export.
type Results struct {
	SessionID     string
	UserName      string
	TotalScore    int
	MaxScore      int
	PassMark      int
	Passed        bool
	TimeLimit     time.Duration
	StartedAt     time.Time
	SubmittedAt   time.Time
	AutoSubmitted bool
	Questions     []QuestionResult
	Categories    Breakdown
}

// PassLabel returns "PASS" or "FAIL".
func (r Results) PassLabel() string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

// QuestionResult holds per-question data for review and export.
type QuestionResult struct {
	QuestionID      int
	Scenario        string
	Stem            string
	Options         map[OptionID]string
	Selected        OptionID // empty when unanswered
	PointsEarned    int
	Points          map[OptionID]int
	Tiers           map[OptionID]Tier
	Rationale       map[string]string
	TagNames        []string
	PrimaryCategory string
}

// Answered reports whether an option was selected for the question.
func (q QuestionResult) Answered() bool {
	return q.Selected != ""
}

// OptionReview is one option of a reviewed question with its explanation.
type OptionReview struct {
	Option    OptionID
	Text      string
	Points    int
	Tier      Tier
	Rationale string
	Selected  bool
}

// OptionReviews lists every option in canonical order with the rationale for its tier.
func (q QuestionResult) OptionReviews() []OptionReview {
	out := make([]OptionReview, 0, len(OptionIDs))
	for _, id := range OptionIDs {
		tier := q.Tiers[id]
		out = append(out, OptionReview{
			Option:    id,
			Text:      q.Options[id],
			Points:    q.Points[id],
			Tier:      tier,
			Rationale: q.Rationale[tier.RationaleKey()],
			Selected:  id == q.Selected,
		})
	}
	return out
}
