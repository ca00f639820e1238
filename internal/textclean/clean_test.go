package textclean

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsAttributionAndCrossReference(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	got := c.Normalize("Source/City/Desk, Something happened. Читайте также другие новости.")
	assert.Equal(t, "Something happened.", got)
}

func TestNormalize_RemovesURLs(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	got := c.Normalize("Актриса рассказала о съемках https://example.com/page нового фильма в Москве. Подробности в статье www.example.com тут не нужны никому.")
	assert.NotContains(t, got, "http")
	assert.NotContains(t, got, "www.")
	assert.Contains(t, got, "нового фильма")
}

func TestNormalize_SourceLabelWholeWordOnly(t *testing.T) {
	c := NewCleaner([]string{"ТАСС"}, nil, nil)

	// Standalone label removed, embedded occurrence untouched.
	got := c.Normalize("Об этом сообщает ТАСС в своем недавнем материале. Слово ТАССовский останется на месте здесь.")
	assert.NotContains(t, got, "сообщает ТАСС в")
	assert.Contains(t, got, "ТАССовский")
}

func TestNormalize_RemovesBoilerplate(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	in := "Певица опубликовала фото в Instagram (владелец соцсети компания Meta признана в России экстремистской и запрещена) на этой неделе для поклонников."
	got := c.Normalize(in)
	assert.NotContains(t, got, "экстремистской")
	assert.Contains(t, got, "на этой неделе")
}

func TestNormalize_DropsShortAndEmptyParagraphs(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	in := "Первый абзац достаточно длинный для публикации.\n\n\n\nОк.\n\nВторой абзац тоже вполне достаточно длинный."
	got := c.Normalize(in)

	paragraphs := strings.Split(got, "\n\n")
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "Первый абзац достаточно длинный для публикации.", paragraphs[0])
	assert.Equal(t, "Второй абзац тоже вполне достаточно длинный.", paragraphs[1])
}

func TestNormalize_CollapsesWhitespaceAndMarkup(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	got := c.Normalize("Текст  со   множеством <em>пробелов</em> и [скобок] внутри предложения остается читаемым.")
	assert.NotContains(t, got, "  ")
	assert.NotContains(t, got, "<em>")
	assert.NotContains(t, got, "[")
}

func TestNormalize_EmptyInput(t *testing.T) {
	c := NewCleaner(nil, nil, nil)
	assert.Equal(t, "", c.Normalize(""))
}

func TestNormalize_Idempotent(t *testing.T) {
	c := NewCleaner(nil, nil, nil)

	inputs := []string{
		"Source/City/Desk, Something happened. Читайте также другие новости.",
		"Первый абзац достаточно длинный для публикации.\n\nВторой абзац тоже вполне достаточно длинный.",
		"Актриса рассказала о съемках https://example.com/page нового фильма в Москве.",
		"Певица опубликовала фото в Instagram (владелец соцсети компания Meta признана в России экстремистской и запрещена) на этой неделе для поклонников.",
	}
	for _, in := range inputs {
		once := c.Normalize(in)
		assert.Equal(t, once, c.Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestTruncateAtSentence_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "Short.", TruncateAtSentence("Short.", 900))
}

func TestTruncateAtSentence_LastBoundaryBeforeLimit(t *testing.T) {
	assert.Equal(t, "A.", TruncateAtSentence("A. B. C.", 4))
}

func TestTruncateAtSentence_FallsBackToWhitespace(t *testing.T) {
	got := TruncateAtSentence("слово другое длинноеслово", 14)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(got, "...")), 14)
}

func TestTruncateAtSentence_HardCutWithoutWhitespace(t *testing.T) {
	got := TruncateAtSentence("абвгдеёжзиклмно", 5)
	assert.Equal(t, "абвгд...", got)
}

func TestTruncateAtSentence_ClosingQuoteBoundary(t *testing.T) {
	got := TruncateAtSentence("«Цитата.» Остальной текст без конца", 12)
	assert.Equal(t, "«Цитата.»", got)
}

func TestTruncateAtSentence_NeverExceedsBound(t *testing.T) {
	texts := []string{
		"Одно предложение. Второе предложение! Третье предложение?",
		"безпробеловсовсемдлинныйтекстбезконца",
		"Много слов без знаков препинания в этом тексте",
	}
	for _, text := range texts {
		for _, max := range []int{5, 10, 20, 40} {
			got := TruncateAtSentence(text, max)
			content := strings.TrimSuffix(got, "...")
			assert.LessOrEqual(t, utf8.RuneCountInString(content), max,
				"truncate(%q, %d) = %q", text, max, got)
		}
	}
}
