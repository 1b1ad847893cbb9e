// Package scorecard writes session results to a three-sheet xlsx workbook and
// reads cumulative category totals back from one.
package scorecard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/examsim/internal/model"
)

// Sheet names of a scorecard workbook.
const (
	SheetMetadata   = "Session Metadata"
	SheetQuestions  = "Question Results"
	SheetCategories = "Category Summary"
)

// ErrIncompatibleSchema is returned for any workbook that cannot serve as history.
var ErrIncompatibleSchema = errors.New("incompatible scorecard schema")

var (
	metadataHeader = []any{
		"user_name", "session_date", "total_score", "max_score",
		"pass_fail", "pass_mark", "time_limit_minutes",
	}
	questionsHeader = []any{
		"question_id", "scenario_snippet", "stem", "selected_option_id",
		"points_earned", "max_points", "category",
	}
	categoriesHeader = []any{
		"category", "session_points", "session_max", "session_pct",
		"cumulative_points", "cumulative_max", "cumulative_pct",
	}
)

// Export writes res as a scorecard dated date.
func Export(w io.Writer, res model.Results, date time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMetadata); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetQuestions, SheetCategories} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	// Max score, pass mark and time limit are fixed for every session.
	meta := [][]any{metadataHeader, {
		res.UserName,
		date.Format(time.DateOnly),
		res.TotalScore,
		model.MaxScore,
		res.PassLabel(),
		model.PassMark,
		model.TimeLimitMinutes,
	}}
	if err := writeRows(f, SheetMetadata, meta); err != nil {
		return err
	}

	questions := [][]any{questionsHeader}
	for _, q := range res.Questions {
		questions = append(questions, []any{
			q.QuestionID,
			snippet(q.Scenario, model.ScenarioSnippetLen),
			q.Stem,
			string(q.Selected),
			q.PointsEarned,
			model.MaxPointsPerQuestion,
			q.PrimaryCategory,
		})
	}
	if err := writeRows(f, SheetQuestions, questions); err != nil {
		return err
	}

	categories := [][]any{categoriesHeader}
	for _, c := range res.Categories {
		categories = append(categories, []any{
			c.Name,
			c.SessionPoints,
			c.SessionMax,
			c.SessionPercent(),
			c.CumulativePoints,
			c.CumulativeMax,
			c.CumulativePercent(),
		})
	}
	if err := writeRows(f, SheetCategories, categories); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// snippet returns the first n runes of s.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ExportFile writes res as a scorecard to path.
func ExportFile(path string, res model.Results, date time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scorecard: %w", err)
	}
	if err := Export(f, res, date); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName returns the conventional scorecard file name for a session.
func FileName(userName string, date time.Time) string {
	return fmt.Sprintf("scorecard_%s_%s.xlsx", sanitize(userName), date.Format(time.DateOnly))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// HistoryFromBreakdown snapshots the cumulative totals of b as a baseline
// for the next session.
func HistoryFromBreakdown(b model.Breakdown) *model.History {
	h := &model.History{Categories: make([]model.CategoryTotal, 0, len(b))}
	for _, c := range b {
		h.Set(model.CategoryTotal{
			Name:             c.Name,
			CumulativePoints: c.CumulativePoints,
			CumulativeMax:    c.CumulativeMax,
		})
	}
	return h
}
