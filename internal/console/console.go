// Package console drives an exam session over a line-based terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/examsim/internal/i18n"
	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/scorecard"
	"github.com/pavelanni/examsim/internal/session"
)

// Runner reads commands from in and writes the exam to out.
type Runner struct {
	exam         *session.Exam
	in           *bufio.Scanner
	out          io.Writer
	scorecardDir string // empty disables export
	now          func() time.Time
}

// NewRunner returns a Runner for exam. Scorecards are written to
// scorecardDir after each submission unless it is empty.
func NewRunner(exam *session.Exam, in io.Reader, out io.Writer, scorecardDir string) *Runner {
	return &Runner{
		exam:         exam,
		in:           bufio.NewScanner(in),
		out:          out,
		scorecardDir: scorecardDir,
		now:          time.Now,
	}
}

func (r *Runner) say(ctx context.Context, id string) {
	fmt.Fprintln(r.out, i18n.T(ctx, id))
}

func (r *Runner) sayf(ctx context.Context, id string, data map[string]any) {
	fmt.Fprintln(r.out, i18n.Td(ctx, id, data))
}

// readLine returns the next trimmed input line; io.EOF once input ends.
func (r *Runner) readLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.in.Text()), nil
}

// Run starts sessions for userName until the user declines another one or
// input ends.
func (r *Runner) Run(ctx context.Context, userName string, categories []string) error {
	for {
		if err := r.exam.Start(userName, categories); err != nil {
			return err
		}
		res, err := r.take(ctx)
		if err != nil {
			return err
		}
		r.report(ctx, res)

		fmt.Fprint(r.out, i18n.T(ctx, "NewSessionPrompt"))
		line, err := r.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		again := strings.EqualFold(line, "y") || strings.EqualFold(line, "yes")
		if err := r.exam.NewSession(true); err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

// take runs the active phase until the session is submitted.
func (r *Runner) take(ctx context.Context) (*model.Results, error) {
	s, _ := r.exam.Session()
	r.sayf(ctx, "Welcome", map[string]any{
		"Name":    s.UserName,
		"Minutes": int(s.TimeLimit / time.Minute),
		"Count":   len(s.Items),
	})
	r.say(ctx, "Help")

	for {
		if err := r.show(ctx); err != nil {
			return nil, err
		}
		fmt.Fprint(r.out, i18n.T(ctx, "Prompt"))
		line, err := r.readLine()
		if errors.Is(err, io.EOF) {
			// Input ended; submit what has been answered.
			return r.exam.Submit()
		}
		if err != nil {
			return nil, err
		}

		// The clock is checked before the command so nothing entered after
		// expiry counts.
		if done, err := r.exam.Tick(); err != nil {
			return nil, err
		} else if done {
			r.say(ctx, "TimeUp")
			return r.exam.Results()
		}

		submitted, err := r.dispatch(ctx, line)
		if err != nil {
			return nil, err
		}
		if submitted {
			return r.exam.Results()
		}
	}
}

// dispatch executes one command and reports whether it submitted the session.
func (r *Runner) dispatch(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "1", "2", "3", "4":
		n, _ := strconv.Atoi(cmd)
		return false, r.exam.Select(n - 1)
	case "n":
		return false, r.navErr(ctx, r.exam.Next())
	case "p":
		return false, r.navErr(ctx, r.exam.Prev())
	case "g":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			r.say(ctx, "NoSuchQuestion")
			return false, nil
		}
		return false, r.navErr(ctx, r.exam.GoTo(n-1))
	case "f":
		flagged, err := r.exam.ToggleFlag()
		if err != nil {
			return false, err
		}
		if flagged {
			r.say(ctx, "Flagged")
		} else {
			r.say(ctx, "Unflagged")
		}
	case "l":
		return false, r.navigator()
	case "x":
		err := r.exam.Extend()
		switch {
		case errors.Is(err, session.ErrExtensionUnavailable):
			r.say(ctx, "ExtensionUnavailable")
		case err != nil:
			return false, err
		default:
			r.say(ctx, "ExtensionGranted")
		}
	case "s":
		_, err := r.exam.Submit()
		return err == nil, err
	case "h", "?":
		r.say(ctx, "Help")
	default:
		r.sayf(ctx, "UnknownCommand", map[string]any{"Command": cmd})
	}
	return false, nil
}

func (r *Runner) navErr(ctx context.Context, err error) error {
	if errors.Is(err, session.ErrInvalidIndex) {
		r.say(ctx, "NoSuchQuestion")
		return nil
	}
	return err
}

var navMarks = map[session.NavStatus]string{
	session.NavCurrent:    ">",
	session.NavFlagged:    "!",
	session.NavAnswered:   "+",
	session.NavUnanswered: "o",
}

func (r *Runner) navigator() error {
	nav, err := r.exam.Navigator()
	if err != nil {
		return err
	}
	parts := make([]string, len(nav))
	for i, n := range nav {
		parts[i] = fmt.Sprintf("%s Q%d", navMarks[n.Status], n.Index+1)
	}
	fmt.Fprintln(r.out, strings.Join(parts, "  "))
	return nil
}

func (r *Runner) show(ctx context.Context) error {
	v, err := r.exam.Current()
	if err != nil {
		return err
	}
	remaining, err := r.exam.Remaining()
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	header := i18n.Td(ctx, "QuestionHeader", map[string]any{"N": v.Index + 1, "Total": v.Total})
	if v.Flagged {
		header += " " + i18n.T(ctx, "FlaggedMark")
	}
	fmt.Fprintln(r.out, header)
	r.sayf(ctx, "TimeLeft", map[string]any{"Time": clock(remaining)})
	if r.exam.CanExtend() {
		r.say(ctx, "ExtensionOffer")
	}
	r.sayf(ctx, "Answered", map[string]any{"Answered": v.Answered, "Total": v.Total})
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, v.Question.Scenario)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, v.Question.Text)
	for _, o := range v.Options {
		mark := " "
		if o.Position == v.Selected {
			mark = "*"
		}
		fmt.Fprintf(r.out, "%s %d) %s\n", mark, o.Position+1, o.Text)
	}
	return nil
}

// clock formats d as mm:ss, clamped at zero.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (r *Runner) report(ctx context.Context, res *model.Results) {
	fmt.Fprintln(r.out)
	result := i18n.T(ctx, "Fail")
	if res.Passed {
		result = i18n.T(ctx, "Pass")
	}
	r.sayf(ctx, "Score", map[string]any{
		"Score":    res.TotalScore,
		"Max":      res.MaxScore,
		"Result":   result,
		"PassMark": res.PassMark,
	})

	r.say(ctx, "CategoryHeader")
	for _, c := range res.Categories {
		r.sayf(ctx, "CategoryLine", map[string]any{
			"Name":             c.Name,
			"SessionPoints":    c.SessionPoints,
			"SessionMax":       c.SessionMax,
			"SessionPct":       c.SessionPercent(),
			"CumulativePoints": c.CumulativePoints,
			"CumulativeMax":    c.CumulativeMax,
			"CumulativePct":    c.CumulativePercent(),
		})
	}

	r.say(ctx, "ReviewHeader")
	for i, q := range res.Questions {
		r.sayf(ctx, "ReviewQuestion", map[string]any{
			"N":        i + 1,
			"ID":       q.QuestionID,
			"Category": q.PrimaryCategory,
			"Points":   q.PointsEarned,
		})
		if !q.Answered() {
			fmt.Fprintf(r.out, "    (%s)\n", i18n.T(ctx, "NotAnswered"))
		}
		for _, o := range q.OptionReviews() {
			mark := " "
			if o.Selected {
				mark = "*"
			}
			fmt.Fprintf(r.out, "  %s %s [%s, %d] %s\n", mark, o.Option, o.Tier, o.Points, o.Rationale)
		}
	}

	if r.scorecardDir == "" {
		return
	}
	date := r.now()
	path := filepath.Join(r.scorecardDir, scorecard.FileName(res.UserName, date))
	if err := scorecard.ExportFile(path, *res, date); err != nil {
		slog.Error("scorecard export failed", "path", path, "error", err)
		r.sayf(ctx, "ScorecardFailed", map[string]any{"Error": err})
		return
	}
	r.sayf(ctx, "ScorecardSaved", map[string]any{"Path": path})
}
