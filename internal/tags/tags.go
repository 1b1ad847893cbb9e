// Package tags resolves question tag ids to human-readable names via a CSV
// reference table.
package tags

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/examsim/internal/model"
)

// Required header columns of a tag reference file.
const (
	ColumnID       = "tag_id"
	ColumnName     = "tag_name"
	ColumnCategory = "tag_category"
)

// MissingColumnError reports a required column absent from the header row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("tags: missing required column %q", e.Column)
}

// Table is the id → tag reference table. Order is the first appearance of each id.
type Table struct {
	byID  map[int]model.Tag
	order []int
}

// New builds a table from tags in the given order.
func New(tt ...model.Tag) *Table {
	t := &Table{byID: make(map[int]model.Tag, len(tt))}
	for _, tag := range tt {
		t.put(tag)
	}
	return t
}

func (t *Table) put(tag model.Tag) {
	if _, ok := t.byID[tag.ID]; !ok {
		t.order = append(t.order, tag.ID)
	}
	t.byID[tag.ID] = tag
}

// Load reads a tag table from CSV with a header row.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Join(missing(nil)...)
	}
	if err != nil {
		return nil, fmt.Errorf("tags: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	if errs := missing(col); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	t := New()
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tags: row %d: %w", row, err)
		}
		idCol, nameCol, catCol := col[ColumnID], col[ColumnName], col[ColumnCategory]
		if idCol >= len(rec) || nameCol >= len(rec) || catCol >= len(rec) {
			return nil, fmt.Errorf("tags: row %d: expected at least %d fields, got %d",
				row, max(idCol, nameCol, catCol)+1, len(rec))
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("tags: row %d: tag_id %q is not an integer", row, rec[idCol])
		}
		t.put(model.Tag{
			ID:       id,
			Name:     strings.TrimSpace(rec[nameCol]),
			Category: strings.TrimSpace(rec[catCol]),
		})
	}
	return t, nil
}

func missing(col map[string]int) []error {
	var errs []error
	for _, name := range []string{ColumnCategory, ColumnID, ColumnName} {
		if _, ok := col[name]; !ok {
			errs = append(errs, &MissingColumnError{Column: name})
		}
	}
	return errs
}

// LoadFile reads a tag table from a CSV file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of distinct tag ids.
func (t *Table) Len() int {
	return len(t.order)
}

// Get returns the tag with the given id.
func (t *Table) Get(id int) (model.Tag, bool) {
	tag, ok := t.byID[id]
	return tag, ok
}

// NamesFor returns the distinct names of the question's tags in first-seen order.
// Unknown ids are skipped.
func (t *Table) NamesFor(q model.Question) []string {
	var names []string
	for _, id := range q.Tags {
		tag, ok := t.byID[id]
		if !ok || slices.Contains(names, tag.Name) {
			continue
		}
		names = append(names, tag.Name)
	}
	return names
}

// AllNames returns the sorted distinct tag names used by the questions.
func (t *Table) AllNames(qs []model.Question) []string {
	seen := make(map[string]struct{})
	for _, q := range qs {
		for _, name := range t.NamesFor(q) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IDFor returns the first id in table order whose name matches.
func (t *Table) IDFor(name string) (int, bool) {
	for _, id := range t.order {
		if t.byID[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// IDsFor resolves names to ids, dropping names with no matching tag.
func (t *Table) IDsFor(names []string) []int {
	var ids []int
	for _, name := range names {
		if id, ok := t.IDFor(name); ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}
