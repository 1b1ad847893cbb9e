package session

import (
	"fmt"
	"time"

	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/scoring"
	"github.com/pavelanni/examsim/internal/shuffle"
)

// View is the current question as presented to the user.
type View struct {
	Index    int
	Total    int
	Question model.Question
	Options  []shuffle.DisplayOption
	Selected int // display position, -1 when nothing is selected
	Flagged  bool
	Answered int
}

// NavStatus is the state shown for a question in the navigator.
type NavStatus int

const (
	NavUnanswered NavStatus = iota
	NavAnswered
	NavFlagged
	NavCurrent
)

func (s NavStatus) String() string {
	switch s {
	case NavCurrent:
		return "current"
	case NavFlagged:
		return "flagged"
	case NavAnswered:
		return "answered"
	}
	return "unanswered"
}

// NavEntry is one navigator slot.
type NavEntry struct {
	Index      int
	QuestionID int
	Status     NavStatus
}

// commit records the staged position, if any, as the current question's answer.
func (e *Exam) commit() {
	s := e.sess
	if s == nil || s.pending == nil {
		return
	}
	pos := *s.pending
	s.pending = nil
	item := s.Items[s.Current]
	opt, _ := item.Mapping.Option(pos)
	points, err := scoring.ResolveScore(item.Points, item.Mapping, pos)
	if err != nil {
		return
	}
	s.Answers[item.Question.ID] = model.Answer{Position: pos, Option: opt, Points: points}
}

// Stage records pos as pending input for the current question. It is
// committed by the next transition.
func (e *Exam) Stage(pos int) error {
	if err := e.phase(StatusActive); err != nil {
		return err
	}
	if _, ok := e.sess.Items[e.sess.Current].Mapping.Option(pos); !ok {
		return fmt.Errorf("%w: %d", scoring.ErrInvalidPosition, pos)
	}
	e.sess.pending = &pos
	return nil
}

// Select stages pos and commits it immediately.
func (e *Exam) Select(pos int) error {
	if err := e.Stage(pos); err != nil {
		return err
	}
	e.commit()
	return nil
}

// GoTo moves to the question at index i.
func (e *Exam) GoTo(i int) error {
	if err := e.phase(StatusActive); err != nil {
		return err
	}
	e.commit()
	if i < 0 || i >= len(e.sess.Items) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	e.sess.Current = i
	return nil
}

// Next moves to the following question. On the last question it returns
// ErrInvalidIndex and stays put, with pending input committed.
func (e *Exam) Next() error {
	if e.sess == nil {
		return e.phase(StatusActive)
	}
	return e.GoTo(e.sess.Current + 1)
}

// Prev moves to the preceding question, with the same bounds as Next.
func (e *Exam) Prev() error {
	if e.sess == nil {
		return e.phase(StatusActive)
	}
	return e.GoTo(e.sess.Current - 1)
}

// ToggleFlag flags or unflags the current question and reports the new state.
func (e *Exam) ToggleFlag() (bool, error) {
	if err := e.phase(StatusActive); err != nil {
		return false, err
	}
	e.commit()
	id := e.sess.Items[e.sess.Current].Question.ID
	if e.sess.Flags[id] {
		delete(e.sess.Flags, id)
		return false, nil
	}
	e.sess.Flags[id] = true
	return true, nil
}

func (e *Exam) remaining() time.Duration {
	return e.sess.TimeLimit - e.cfg.now().Sub(e.sess.clockStart)
}

// Remaining returns the time left; it is negative once time has run out.
func (e *Exam) Remaining() (time.Duration, error) {
	if err := e.phase(StatusActive); err != nil {
		return 0, err
	}
	return e.remaining(), nil
}

func (e *Exam) canExtend() bool {
	r := e.remaining()
	return !e.sess.ExtensionUsed && r > 0 && r <= e.cfg.exam.ExtensionWindow
}

// CanExtend reports whether the one-time extension is on offer.
func (e *Exam) CanExtend() bool {
	return e.status == StatusActive && e.canExtend()
}

// Extend grants the one-time extension.
func (e *Exam) Extend() error {
	if err := e.phase(StatusActive); err != nil {
		return err
	}
	e.commit()
	if !e.canExtend() {
		return ErrExtensionUnavailable
	}
	// Moving the clock start later adds the extension to the time left.
	// Shifting it earlier would take the time away instead.
	e.sess.clockStart = e.sess.clockStart.Add(e.cfg.exam.Extension)
	e.sess.ExtensionUsed = true
	e.cfg.logger.Info("time extended", "session", e.sess.ID, "remaining", e.remaining())
	return nil
}

// Tick commits pending input and submits the session if time has run out.
// It reports whether the session was submitted.
func (e *Exam) Tick() (bool, error) {
	if err := e.phase(StatusActive); err != nil {
		return false, err
	}
	e.commit()
	if e.remaining() > 0 {
		return false, nil
	}
	e.submit(true)
	return true, nil
}

// Navigator returns the status of every question in display order.
func (e *Exam) Navigator() ([]NavEntry, error) {
	if err := e.phase(StatusActive); err != nil {
		return nil, err
	}
	s := e.sess
	out := make([]NavEntry, len(s.Items))
	for i, item := range s.Items {
		id := item.Question.ID
		status := NavUnanswered
		_, answered := s.Answers[id]
		switch {
		case i == s.Current:
			status = NavCurrent
		case s.Flags[id]:
			status = NavFlagged
		case answered:
			status = NavAnswered
		}
		out[i] = NavEntry{Index: i, QuestionID: id, Status: status}
	}
	return out, nil
}

// Current returns the question at the cursor with its shuffled options.
func (e *Exam) Current() (View, error) {
	if err := e.phase(StatusActive); err != nil {
		return View{}, err
	}
	s := e.sess
	item := s.Items[s.Current]
	v := View{
		Index:    s.Current,
		Total:    len(s.Items),
		Question: item.Question,
		Options:  s.Display[s.Current],
		Selected: -1,
		Flagged:  s.Flags[item.Question.ID],
		Answered: len(s.Answers),
	}
	if a, ok := s.Answers[item.Question.ID]; ok {
		v.Selected = a.Position
	}
	if s.pending != nil {
		v.Selected = *s.pending
	}
	return v, nil
}

// Session returns the active or just-submitted session. The returned value
// must be treated as read-only.
func (e *Exam) Session() (*Session, bool) {
	return e.sess, e.sess != nil
}

// Submit scores the session and freezes its results.
func (e *Exam) Submit() (*model.Results, error) {
	if err := e.phase(StatusActive); err != nil {
		return nil, err
	}
	e.commit()
	return e.submit(false), nil
}

func (e *Exam) submit(auto bool) *model.Results {
	s := e.sess
	total := scoring.ScoreSession(s.Items, s.Answers)
	breakdown := scoring.CategoryBreakdown(s.Items, s.Answers, e.tag)

	res := &model.Results{
		SessionID:     s.ID,
		UserName:      s.UserName,
		TotalScore:    total,
		MaxScore:      model.MaxScore,
		PassMark:      model.PassMark,
		Passed:        scoring.IsPassing(total),
		TimeLimit:     s.TimeLimit,
		StartedAt:     s.StartedAt,
		SubmittedAt:   e.cfg.now(),
		AutoSubmitted: auto,
		Questions:     make([]model.QuestionResult, len(s.Items)),
		Categories:    scoring.MergeHistorical(breakdown, e.history),
	}
	for i, item := range s.Items {
		q := item.Question
		names := e.tag.NamesFor(q)
		qr := model.QuestionResult{
			QuestionID:   q.ID,
			Scenario:     q.Scenario,
			Stem:         q.Text,
			Options:      q.Options,
			PointsEarned: scoring.Earned(item, s.Answers),
			Points:       item.Points,
			Tiers:        scoring.BuildTierLookup(q.Scoring),
			Rationale:    q.Rationale,
			TagNames:     names,
		}
		if a, ok := s.Answers[q.ID]; ok {
			qr.Selected = a.Option
		}
		if len(names) > 0 {
			qr.PrimaryCategory = names[0]
		}
		res.Questions[i] = qr
	}

	e.results = res
	e.status = StatusSubmitted
	e.cfg.logger.Info("session submitted",
		"session", s.ID, "score", total, "max", res.MaxScore,
		"passed", res.Passed, "auto", auto)
	return res
}
