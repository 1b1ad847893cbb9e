package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	require.NoError(t, Init(lang))
	return WithLanguage(context.Background(), lang)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "Exam Simulator", T(ctx, "AppTitle"))
	assert.Equal(t, "PASS", T(ctx, "Pass"))
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")
	assert.Equal(t, "Симулятор экзамена", T(ctx, "AppTitle"))
	assert.Equal(t, "Вопрос 2 из 8", Td(ctx, "QuestionHeader", map[string]any{"N": 2, "Total": 8}))
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "1 question available.", Tp(ctx, "QuestionsAvailable", 1))
	assert.Equal(t, "5 questions available.", Tp(ctx, "QuestionsAvailable", 5))

	ru := initLang(t, "ru")
	assert.Equal(t, "Доступно 3 вопроса.", Tp(ru, "QuestionsAvailable", 3))
	assert.Equal(t, "Доступно 5 вопросов.", Tp(ru, "QuestionsAvailable", 5))
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")
	got := Td(ctx, "ScorecardSaved", map[string]any{"Path": "out.xlsx"})
	assert.Equal(t, "Scorecard saved to out.xlsx", got)
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")
	assert.Equal(t, "NonExistentKey", T(ctx, "NonExistentKey"))
}

func TestBadLanguage(t *testing.T) {
	assert.Error(t, Init("not a language!"))
}

func TestFallbackLocalizer(t *testing.T) {
	require.NoError(t, Init("en"))
	assert.Equal(t, "Exam Simulator", T(context.Background(), "AppTitle"))
}
