package scorecard

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/examsim/internal/model"
)

func incompatible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIncompatibleSchema, fmt.Sprintf(format, args...))
}

// Import reads the cumulative category totals of a scorecard.
// Extra sheets and columns are ignored.
func Import(r io.Reader) (*model.History, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, incompatible("cannot read file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, name := range []string{SheetMetadata, SheetQuestions, SheetCategories} {
		if !slices.Contains(sheets, name) {
			return nil, incompatible("missing sheet '%s'", name)
		}
	}

	rows, err := f.GetRows(SheetCategories)
	if err != nil {
		return nil, incompatible("cannot read sheet '%s'", SheetCategories)
	}
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	for _, name := range []string{"category", "cumulative_points", "cumulative_max"} {
		if _, ok := col[name]; !ok {
			return nil, incompatible("missing column '%s'", name)
		}
	}

	h := &model.History{}
	for i, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, col["category"]))
		if name == "" {
			continue
		}
		points, err := parseInt(cell(row, col["cumulative_points"]))
		if err != nil {
			return nil, incompatible("row %d: cumulative_points: %v", i+2, err)
		}
		maxPoints, err := parseInt(cell(row, col["cumulative_max"]))
		if err != nil {
			return nil, incompatible("row %d: cumulative_max: %v", i+2, err)
		}
		h.Set(model.CategoryTotal{Name: name, CumulativePoints: points, CumulativeMax: maxPoints})
	}
	return h, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseInt accepts integers, including integral values stored as floats.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

// ImportFile reads the cumulative totals of the scorecard at path.
func ImportFile(path string) (*model.History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleSchema, err)
	}
	defer f.Close()
	return Import(f)
}
