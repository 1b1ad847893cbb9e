// Package session drives one exam attempt from setup through submission.
//
// An Exam moves through three phases:
//
//	Setup → Active     Start
//	Active → Submitted Submit, or Tick once time runs out
//	Submitted → Setup  NewSession
//
// Pending input staged for the current question is committed before every
// transition, so a selection is never lost to navigation or the timer.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examsim/internal/bank"
	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/scorecard"
	"github.com/pavelanni/examsim/internal/scoring"
	"github.com/pavelanni/examsim/internal/shuffle"
	"github.com/pavelanni/examsim/internal/tags"
)

// Status is the lifecycle phase of an Exam.
type Status int

const (
	StatusSetup Status = iota
	StatusActive
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusSetup:
		return "setup"
	case StatusActive:
		return "active"
	case StatusSubmitted:
		return "submitted"
	}
	return "unknown"
}

type config struct {
	exam   model.ExamConfig
	now    func() time.Time
	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures an Exam.
type Option func(*config)

// WithClock sets the time source used for the countdown.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithRand sets the random source for draws and shuffles.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

// WithConfig overrides the exam parameters.
func WithConfig(cfg model.ExamConfig) Option {
	return func(c *config) { c.exam = cfg }
}

// WithLogger sets the logger for session events. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Session is the state of the current attempt.
type Session struct {
	ID            string
	UserName      string
	Categories    []string
	Items         []scoring.Item
	Display       [][]shuffle.DisplayOption
	Answers       model.Answers
	Flags         map[int]bool
	Current       int
	StartedAt     time.Time
	TimeLimit     time.Duration
	ExtensionUsed bool

	clockStart time.Time // moved later by an extension
	pending    *int
}

// Exam owns the state of one exam process. It is not safe for concurrent use.
type Exam struct {
	cfg config
	tag *tags.Table

	status  Status
	bank    []model.Question
	history *model.History
	sess    *Session
	results *model.Results
}

// New returns an Exam in the setup phase.
func New(tagTable *tags.Table, opts ...Option) *Exam {
	cfg := config{
		exam:   model.DefaultExamConfig(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil && cfg.exam.Seed != nil {
		cfg.rng = shuffle.NewRand(*cfg.exam.Seed)
	}
	if tagTable == nil {
		tagTable = tags.New()
	}
	return &Exam{cfg: cfg, tag: tagTable}
}

func (e *Exam) phase(want Status) error {
	if e.status != want {
		return fmt.Errorf("%w: exam is %s", ErrInvalidTransition, e.status)
	}
	return nil
}

// Status returns the current phase.
func (e *Exam) Status() Status {
	return e.status
}

// LoadBank replaces the question bank.
func (e *Exam) LoadBank(questions []model.Question) error {
	if err := e.phase(StatusSetup); err != nil {
		return err
	}
	e.bank = append([]model.Question(nil), questions...)
	e.cfg.logger.Info("question bank loaded", "questions", len(questions))
	return nil
}

// Bank returns the loaded questions.
func (e *Exam) Bank() []model.Question {
	return append([]model.Question(nil), e.bank...)
}

// Categories returns the sorted tag names used by the loaded bank.
func (e *Exam) Categories() []string {
	return e.tag.AllNames(e.bank)
}

// History returns the history the next session will be merged with.
func (e *Exam) History() *model.History {
	return e.history
}

// SetHistory sets the cumulative baseline. A nil history clears it.
func (e *Exam) SetHistory(h *model.History) error {
	if err := e.phase(StatusSetup); err != nil {
		return err
	}
	e.history = h
	return nil
}

// ImportHistory reads the baseline from a scorecard. On failure any
// baseline, including one carried forward, is dropped.
func (e *Exam) ImportHistory(r io.Reader) error {
	if err := e.phase(StatusSetup); err != nil {
		return err
	}
	h, err := scorecard.Import(r)
	if err != nil {
		e.history = nil
		e.cfg.logger.Warn("scorecard import failed", "error", err)
		return err
	}
	e.history = h
	e.cfg.logger.Info("scorecard imported", "categories", len(h.Categories))
	return nil
}

// Start draws a session for userName from the questions tagged with any of categories.
// On failure the exam stays in setup with the bank intact.
func (e *Exam) Start(userName string, categories []string) error {
	if err := e.phase(StatusSetup); err != nil {
		return err
	}
	if len(e.bank) == 0 {
		return ErrNoBank
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return ErrEmptyUserName
	}
	if len(categories) == 0 {
		return ErrNoCategories
	}
	if e.cfg.exam.Extension <= 0 || e.cfg.exam.ExtensionWindow <= 0 {
		return fmt.Errorf("%w: extension %s, window %s",
			ErrInvalidConfig, e.cfg.exam.Extension, e.cfg.exam.ExtensionWindow)
	}

	pool := bank.FilterByTags(e.bank, e.tag.IDsFor(categories))
	drawn, err := bank.Draw(pool, model.QuestionsPerSession, e.cfg.rng)
	if err != nil {
		return err
	}
	ordered := shuffle.Questions(drawn, e.cfg.rng)

	s := &Session{
		ID:         uuid.NewString(),
		UserName:   userName,
		Categories: append([]string(nil), categories...),
		Items:      make([]scoring.Item, len(ordered)),
		Display:    make([][]shuffle.DisplayOption, len(ordered)),
		Answers:    make(model.Answers),
		Flags:      make(map[int]bool),
		TimeLimit:  model.TimeLimit,
	}
	for i, q := range ordered {
		opts, mapping := shuffle.Options(q, e.cfg.rng)
		s.Items[i] = scoring.NewItem(q, mapping)
		s.Display[i] = opts
	}
	s.StartedAt = e.cfg.now()
	s.clockStart = s.StartedAt

	e.sess = s
	e.results = nil
	e.status = StatusActive
	e.cfg.logger.Info("session started",
		"session", s.ID, "user", userName, "categories", len(categories),
		"pool", len(pool), "questions", len(s.Items))
	return nil
}

// NewSession returns to setup after a submission. When carryForward is true
// the cumulative breakdown becomes the next baseline; otherwise the baseline
// is cleared.
func (e *Exam) NewSession(carryForward bool) error {
	if err := e.phase(StatusSubmitted); err != nil {
		return err
	}
	if carryForward && len(e.results.Categories) > 0 {
		e.history = scorecard.HistoryFromBreakdown(e.results.Categories)
	} else if !carryForward {
		e.history = nil
	}
	e.sess = nil
	e.results = nil
	e.status = StatusSetup
	return nil
}

// Results returns the results of the submitted session.
func (e *Exam) Results() (*model.Results, error) {
	if err := e.phase(StatusSubmitted); err != nil {
		return nil, err
	}
	return e.results, nil
}
