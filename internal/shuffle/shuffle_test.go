package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examsim/internal/model"
)

func testQuestion(id int) model.Question {
	return model.Question{
		ID:   id,
		Text: "stem",
		Options: map[model.OptionID]string{
			model.OptionA: "alpha",
			model.OptionB: "bravo",
			model.OptionC: "charlie",
			model.OptionD: "delta",
		},
	}
}

func TestQuestionsIsPermutation(t *testing.T) {
	var qs []model.Question
	for i := 1; i <= 10; i++ {
		qs = append(qs, testQuestion(i))
	}

	got := Questions(qs, NewRand(42))
	require.Len(t, got, len(qs))

	seen := make(map[int]bool)
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
	}
	assert.Len(t, seen, len(qs))

	// Input order untouched.
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
	}
}

func TestQuestionsDeterministic(t *testing.T) {
	var qs []model.Question
	for i := 1; i <= 20; i++ {
		qs = append(qs, testQuestion(i))
	}
	a := Questions(qs, NewRand(7))
	b := Questions(qs, NewRand(7))
	assert.Equal(t, a, b)
}

func TestQuestionsEmpty(t *testing.T) {
	assert.Empty(t, Questions(nil, nil))
}

func TestOptionsMappingIsBijection(t *testing.T) {
	q := testQuestion(1)
	for seed := uint64(0); seed < 50; seed++ {
		opts, m := Options(q, NewRand(seed))
		require.Len(t, opts, 4)
		require.True(t, m.Valid(), "seed %d: mapping %v", seed, m)

		for pos, opt := range opts {
			assert.Equal(t, pos, opt.Position)
			assert.Equal(t, q.Options[opt.Option], opt.Text)

			id, ok := m.Option(pos)
			require.True(t, ok)
			assert.Equal(t, opt.Option, id)

			back, ok := m.Position(id)
			require.True(t, ok)
			assert.Equal(t, pos, back)
		}
	}
}

func TestOptionsDeterministic(t *testing.T) {
	q := testQuestion(1)
	o1, m1 := Options(q, NewRand(99))
	o2, m2 := Options(q, NewRand(99))
	assert.Equal(t, o1, o2)
	assert.Equal(t, m1, m2)
}

func TestOptionsDoesNotMutateCanonicalOrder(t *testing.T) {
	Options(testQuestion(1), NewRand(3))
	assert.Equal(t, [4]model.OptionID{"A", "B", "C", "D"}, model.OptionIDs)
}

func TestMappingBounds(t *testing.T) {
	m := Mapping{"B", "A", "D", "C"}
	_, ok := m.Option(4)
	assert.False(t, ok)
	_, ok = m.Option(-1)
	assert.False(t, ok)
	_, ok = m.Position("E")
	assert.False(t, ok)

	assert.False(t, Mapping{"A", "A", "B", "C"}.Valid())
	assert.False(t, Mapping{}.Valid())
}
