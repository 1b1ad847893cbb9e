// Package bank loads, validates, filters and samples question banks.
package bank

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/pavelanni/examsim/internal/model"
)

// RationaleKeys lists the entries every question rationale must carry.
var RationaleKeys = []string{
	"why_best",
	"why_second_best",
	"why_third_best",
	"why_distractor",
	"concept_tested",
	"common_mistakes",
	"togaf_reference",
}

var validPoints = []int{0, 1, 3, 5}

// Parse validates decoded bank records and returns them as questions.
// It stops at the first violation; no partial bank is returned.
func Parse(records []any) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for _, rec := range records {
		q, err := parseQuestion(rec, seen)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ParseAny validates a decoded bank whose top-level shape is not yet known.
func ParseAny(v any) ([]model.Question, error) {
	records, ok := v.([]any)
	if !ok {
		return nil, ErrNotAList
	}
	return Parse(records)
}

func parseQuestion(rec any, seen map[int]struct{}) (model.Question, error) {
	var q model.Question
	m, ok := rec.(map[string]any)
	if !ok {
		return q, &ValidationError{QuestionID: nil, Field: "id", Msg: "record must be an object"}
	}
	rawID := m["id"]
	fail := func(field, msg string) (model.Question, error) {
		return model.Question{}, &ValidationError{QuestionID: rawID, Field: field, Msg: msg}
	}

	id, ok := asInt(rawID)
	if !ok {
		return fail("id", "must be an integer")
	}
	if _, dup := seen[id]; dup {
		return fail("id", "is a duplicate")
	}
	seen[id] = struct{}{}
	q.ID = id

	if q.Scenario, ok = m["scenario"].(string); !ok {
		return fail("scenario", "must be a string")
	}

	text, present := m["question"]
	if !present {
		return fail("question", "is missing")
	}
	if q.Text, ok = text.(string); !ok || q.Text == "" {
		return fail("question", "must be a non-empty string")
	}

	opts, ok := m["options"].(map[string]any)
	if !ok || len(opts) != len(model.OptionIDs) {
		return fail("options", "must have exactly 4 keys A/B/C/D")
	}
	q.Options = make(map[model.OptionID]string, len(opts))
	for _, id := range model.OptionIDs {
		v, present := opts[string(id)]
		if !present {
			return fail("options", "must have exactly 4 keys A/B/C/D")
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return fail("options", "option '"+string(id)+"' must be a non-empty string")
		}
		q.Options[id] = s
	}

	scoring, ok := m["scoring"].(map[string]any)
	if !ok || len(scoring) != len(model.Tiers) {
		return fail("scoring", "must have exactly keys best, second_best, third_best, distractor")
	}
	var options []model.OptionID
	var points []int
	for _, tier := range model.Tiers {
		raw, present := scoring[tier.String()]
		if !present {
			return fail("scoring", "must have exactly keys best, second_best, third_best, distractor")
		}
		entry, ok := raw.(map[string]any)
		if !ok {
			return fail("scoring", "tier '"+tier.String()+"' must be an object")
		}
		optRaw, hasOpt := entry["option"]
		ptsRaw, hasPts := entry["points"]
		if !hasOpt || !hasPts {
			return fail("scoring", "tier '"+tier.String()+"' missing 'option' or 'points'")
		}
		opt, _ := optRaw.(string)
		pts, ok := asInt(ptsRaw)
		if !ok {
			return fail("scoring", "tier '"+tier.String()+"' points must be an integer")
		}
		q.Scoring[tier] = model.TierScore{Option: model.OptionID(opt), Points: pts}
		options = append(options, model.OptionID(opt))
		points = append(points, pts)
	}
	slices.Sort(options)
	if !slices.Equal(options, model.OptionIDs[:]) {
		return fail("scoring", "option values must be exactly {A,B,C,D}")
	}
	slices.Sort(points)
	if !slices.Equal(points, validPoints) {
		return fail("scoring", "points must be exactly {5,3,1,0}")
	}

	tagList, ok := m["tags"].([]any)
	if !ok || len(tagList) == 0 {
		return fail("tags", "must be a non-empty list")
	}
	q.Tags = make([]int, 0, len(tagList))
	for _, t := range tagList {
		tag, ok := asInt(t)
		if !ok {
			return fail("tags", "must contain only integers")
		}
		q.Tags = append(q.Tags, tag)
	}

	rationale, ok := m["rationale"].(map[string]any)
	if !ok {
		return fail("rationale", "is missing required keys")
	}
	q.Rationale = make(map[string]string, len(rationale))
	for _, key := range RationaleKeys {
		v, present := rationale[key]
		if !present {
			return fail("rationale", "is missing required key '"+key+"'")
		}
		s, ok := v.(string)
		if !ok {
			return fail("rationale", "key '"+key+"' must be a string")
		}
		q.Rationale[key] = s
	}
	for key, v := range rationale {
		if s, ok := v.(string); ok {
			q.Rationale[key] = s
		}
	}

	return q, nil
}

// asInt accepts integral values from either decoder; booleans and
// fractional numbers are rejected.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
