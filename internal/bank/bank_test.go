package bank

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/shuffle"
)

func validRecord(id int, tags ...int) map[string]any {
	if len(tags) == 0 {
		tags = []int{1}
	}
	return map[string]any{
		"id":       id,
		"scenario": "A company is adopting an enterprise architecture practice.",
		"question": "What should the architect do first?",
		"options": map[string]any{
			"A": "Option A", "B": "Option B", "C": "Option C", "D": "Option D",
		},
		"scoring": map[string]any{
			"best":        map[string]any{"option": "B", "points": 5},
			"second_best": map[string]any{"option": "D", "points": 3},
			"third_best":  map[string]any{"option": "A", "points": 1},
			"distractor":  map[string]any{"option": "C", "points": 0},
		},
		"tags": tags,
		"rationale": map[string]any{
			"why_best":        "b",
			"why_second_best": "d",
			"why_third_best":  "a",
			"why_distractor":  "c",
			"concept_tested":  "x",
			"common_mistakes": "y",
			"togaf_reference": "z",
		},
	}
}

func loadJSON(t *testing.T, v any) ([]model.Question, error) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return Load(strings.NewReader(string(b)), FormatJSON)
}

func TestLoadValid(t *testing.T) {
	qs, err := loadJSON(t, []any{validRecord(1, 2, 3), validRecord(7)})
	require.NoError(t, err)
	require.Len(t, qs, 2)

	q := qs[0]
	assert.Equal(t, 1, q.ID)
	assert.Equal(t, "What should the architect do first?", q.Text)
	assert.Equal(t, []int{2, 3}, q.Tags)
	assert.Equal(t, model.TierScore{Option: "B", Points: 5}, q.Scoring[model.TierBest])
	assert.Equal(t, model.TierScore{Option: "C", Points: 0}, q.Scoring[model.TierDistractor])
	assert.Equal(t, "Option D", q.Options[model.OptionD])
	assert.Equal(t, "z", q.Rationale["togaf_reference"])
}

func TestLoadNotAList(t *testing.T) {
	_, err := loadJSON(t, map[string]any{"id": 1})
	assert.ErrorIs(t, err, ErrNotAList)

	_, err = ParseAny("nope")
	assert.ErrorIs(t, err, ErrNotAList)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{"string id", func(m map[string]any) { m["id"] = "1" }, "id"},
		{"bool id", func(m map[string]any) { m["id"] = true }, "id"},
		{"fractional id", func(m map[string]any) { m["id"] = 1.5 }, "id"},
		{"missing scenario", func(m map[string]any) { delete(m, "scenario") }, "scenario"},
		{"numeric scenario", func(m map[string]any) { m["scenario"] = 3 }, "scenario"},
		{"missing question", func(m map[string]any) { delete(m, "question") }, "question"},
		{"empty question", func(m map[string]any) { m["question"] = "" }, "question"},
		{"three options", func(m map[string]any) { delete(m["options"].(map[string]any), "D") }, "options"},
		{"option E", func(m map[string]any) {
			o := m["options"].(map[string]any)
			delete(o, "D")
			o["E"] = "e"
		}, "options"},
		{"empty option", func(m map[string]any) { m["options"].(map[string]any)["A"] = "" }, "options"},
		{"missing tier", func(m map[string]any) { delete(m["scoring"].(map[string]any), "distractor") }, "scoring"},
		{"tier missing points", func(m map[string]any) {
			m["scoring"].(map[string]any)["best"] = map[string]any{"option": "B"}
		}, "scoring"},
		{"duplicate option", func(m map[string]any) {
			m["scoring"].(map[string]any)["distractor"] = map[string]any{"option": "B", "points": 0}
		}, "scoring"},
		{"bad points", func(m map[string]any) {
			m["scoring"].(map[string]any)["distractor"] = map[string]any{"option": "C", "points": 2}
		}, "scoring"},
		{"empty tags", func(m map[string]any) { m["tags"] = []int{} }, "tags"},
		{"string tags", func(m map[string]any) { m["tags"] = []string{"x"} }, "tags"},
		{"missing rationale key", func(m map[string]any) {
			delete(m["rationale"].(map[string]any), "togaf_reference")
		}, "rationale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord(42)
			tt.mutate(rec)
			qs, err := loadJSON(t, []any{validRecord(1), rec})
			require.Error(t, err)
			assert.Nil(t, qs)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, err.Error(), "field '"+tt.field+"'")
		})
	}
}

func TestLoadDuplicateID(t *testing.T) {
	_, err := loadJSON(t, []any{validRecord(3), validRecord(3)})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "id", ve.Field)
	assert.Contains(t, err.Error(), "question 3")
}

func TestLoadNonObjectRecord(t *testing.T) {
	_, err := loadJSON(t, []any{validRecord(1), 5})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestLoadYAML(t *testing.T) {
	b, err := yaml.Marshal([]any{validRecord(1, 4), validRecord(2, 5)})
	require.NoError(t, err)
	qs, err := Load(strings.NewReader(string(b)), FormatYAML)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, []int{5}, qs[1].Tags)
}

func writeBank(t *testing.T, name string, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestLoadFileFormats(t *testing.T) {
	path := writeBank(t, "bank.json", []any{validRecord(1)})
	qs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "bank.txt"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileMissingSQLiteNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPackAndLoadSQLite(t *testing.T) {
	src := writeBank(t, "bank.json", []any{validRecord(2, 1), validRecord(1, 3)})
	dst := filepath.Join(t.TempDir(), "bank.db")

	res, err := Pack(src, dst)
	require.NoError(t, err)
	assert.Equal(t, PackResult{Questions: 2}, res)

	qs, err := LoadFile(dst)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 2, qs[0].ID)
	assert.Equal(t, []int{3}, qs[1].Tags)

	res, err = Pack(src, dst)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestPackReplacesAfterOtherSource(t *testing.T) {
	a := writeBank(t, "a.json", []any{validRecord(1)})
	b := writeBank(t, "b.json", []any{validRecord(2)})
	dst := filepath.Join(t.TempDir(), "bank.db")

	ids := func() []int {
		qs, err := LoadFile(dst)
		require.NoError(t, err)
		out := make([]int, len(qs))
		for i, q := range qs {
			out[i] = q.ID
		}
		return out
	}

	_, err := Pack(a, dst)
	require.NoError(t, err)
	res, err := Pack(b, dst)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []int{2}, ids())

	// a is unchanged since its first pack, but the file now holds b.
	res, err = Pack(a, dst)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []int{1}, ids())

	res, err = Pack(a, dst)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestPackRejectsInvalid(t *testing.T) {
	rec := validRecord(1)
	delete(rec, "rationale")
	src := writeBank(t, "bad.json", []any{rec})
	dst := filepath.Join(t.TempDir(), "bank.db")

	_, err := Pack(src, dst)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func questionsWithTags(tags ...[]int) []model.Question {
	qs := make([]model.Question, len(tags))
	for i, t := range tags {
		qs[i] = model.Question{ID: i + 1, Tags: t}
	}
	return qs
}

func TestFilterByTags(t *testing.T) {
	qs := questionsWithTags([]int{1}, []int{2, 3}, []int{4}, []int{3})
	got := FilterByTags(qs, []int{3, 9})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 4, got[1].ID)
	assert.Len(t, qs, 4)

	assert.Empty(t, FilterByTags(qs, nil))
}

func TestDraw(t *testing.T) {
	pool := questionsWithTags(make([][]int, 12)...)

	got, err := Draw(pool, 8, shuffle.NewRand(7))
	require.NoError(t, err)
	require.Len(t, got, 8)
	seen := map[int]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate %d", q.ID)
		seen[q.ID] = true
	}

	again, err := Draw(pool, 8, shuffle.NewRand(7))
	require.NoError(t, err)
	assert.Equal(t, got, again)

	exact, err := Draw(pool[:8], 8, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, pool[:8], exact)
}

func TestDrawInsufficient(t *testing.T) {
	pool := questionsWithTags(make([][]int, 5)...)
	_, err := Draw(pool, 8, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientQuestions)

	var ie *InsufficientError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 5, ie.Available)
	assert.Equal(t, 8, ie.Required)
}
