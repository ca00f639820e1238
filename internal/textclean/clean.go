// Package textclean strips source attributions, boilerplate and markup
// remnants from extracted article text while keeping paragraph structure.
package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minSentenceRunes = 15

var (
	urlRe         = regexp.MustCompile(`https?://\S+|www\.\S+`)
	attributionRe = regexp.MustCompile(`^[A-Za-zА-Яа-яёЁ\s]+/[A-Za-zА-Яа-яёЁ\s]+/[A-Za-zА-Яа-яёЁ\s]+,?\s*`)
	bylineRe      = regexp.MustCompile(`^[A-Za-zА-Яа-яёЁ]+\s+[A-Za-zА-Яа-яёЁ]+/,?\s*`)
	bracketRe     = regexp.MustCompile(`[\[\]{}]`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	emailRe       = regexp.MustCompile(`\S+@\S+`)
	spaceRe       = regexp.MustCompile(`\s+`)
	gluedPointRe  = regexp.MustCompile(`\.([a-zа-яё])`)
)

// Defaults mirror the cleaning lists used for passion.ru; callers normally
// override them from the sources config.
var (
	DefaultSourceLabels = []string{
		"©", "Веленгурин Владимир", "Komsomolskaya Pravda", "East News",
		"РИА Новости", "ТАСС", "Instagram", "Meta", "Источник:",
		"Фото:", "Видео:", "Материал подготовил", "Автор:", "Текст:",
	}
	DefaultBoilerplatePatterns = []string{
		`\(владелец соцсети компания Meta признана в России экстремистской и запрещена\)`,
		`соцсети.*?запрещена`,
		`Instagram.*?запрещен`,
		`Meta.*?экстремистской`,
	}
	DefaultCrossReferencePhrases = []string{
		"ранее мы писали", "читайте также", "смотрите также",
		"подробности читайте", "похожие материалы", "другие новости",
		"в другой новости", "как сообщалось ранее",
	}
)

// Cleaner normalizes raw article text. All pattern lists are compiled once;
// a zero-config cleaner uses the defaults above.
type Cleaner struct {
	labels      []*regexp.Regexp
	boilerplate []*regexp.Regexp
	crossRefs   []string
}

// NewCleaner compiles the configured pattern lists. Empty slices fall back
// to the defaults. Invalid boilerplate patterns are skipped.
func NewCleaner(sourceLabels, boilerplatePatterns, crossReferencePhrases []string) *Cleaner {
	if len(sourceLabels) == 0 {
		sourceLabels = DefaultSourceLabels
	}
	if len(boilerplatePatterns) == 0 {
		boilerplatePatterns = DefaultBoilerplatePatterns
	}
	if len(crossReferencePhrases) == 0 {
		crossReferencePhrases = DefaultCrossReferencePhrases
	}

	c := &Cleaner{}
	for _, label := range sourceLabels {
		// RE2 word boundaries are ASCII-only, so build explicit letter/digit
		// boundaries that also hold for Cyrillic labels.
		expr := `(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(label) + `($|[^\p{L}\p{N}_])`
		c.labels = append(c.labels, regexp.MustCompile(expr))
	}
	for _, pattern := range boilerplatePatterns {
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			continue
		}
		c.boilerplate = append(c.boilerplate, re)
	}
	for _, phrase := range crossReferencePhrases {
		c.crossRefs = append(c.crossRefs, strings.ToLower(phrase))
	}
	return c
}

// Normalize cleans raw text paragraph by paragraph. It is pure and
// idempotent: running it over already-clean text changes nothing.
func (c *Cleaner) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var cleaned []string
	for _, paragraph := range strings.Split(raw, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		paragraph = urlRe.ReplaceAllString(paragraph, "")
		paragraph = attributionRe.ReplaceAllString(paragraph, "")
		paragraph = bylineRe.ReplaceAllString(paragraph, "")

		for _, re := range c.labels {
			paragraph = re.ReplaceAllString(paragraph, "$1$2")
		}
		for _, re := range c.boilerplate {
			paragraph = re.ReplaceAllString(paragraph, "")
		}

		paragraph = bracketRe.ReplaceAllString(paragraph, "")
		paragraph = tagRe.ReplaceAllString(paragraph, "")
		paragraph = emailRe.ReplaceAllString(paragraph, "")
		paragraph = spaceRe.ReplaceAllString(paragraph, " ")
		paragraph = strings.TrimSpace(paragraph)

		var kept []string
		for _, sentence := range splitSentences(paragraph) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) <= minSentenceRunes {
				continue
			}
			if c.isCrossReference(sentence) {
				continue
			}
			kept = append(kept, sentence)
		}
		if len(kept) == 0 {
			continue
		}

		rebuilt := strings.Join(kept, " ")
		rebuilt = gluedPointRe.ReplaceAllString(rebuilt, ". $1")
		cleaned = append(cleaned, rebuilt)
	}

	return strings.Join(cleaned, "\n\n")
}

func (c *Cleaner) isCrossReference(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, phrase := range c.crossRefs {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace. The punctuation stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		if isTerminal(runes[i]) && isSpace(runes[i+1]) {
			sentences = append(sentences, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// TruncateAtSentence cuts text to at most max runes, preferring the last
// complete sentence. If no sentence boundary fits, it cuts at the last
// whitespace and appends an ellipsis; as a last resort it hard-truncates.
func TruncateAtSentence(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	for _, end := range []rune{'.', '!', '?', '»'} {
		for i := max - 1; i >= 0; i-- {
			if runes[i] != end {
				continue
			}
			if i+1 >= len(runes) || isSpace(runes[i+1]) {
				return strings.TrimSpace(string(runes[:i+1]))
			}
			break // only the last occurrence of each boundary char counts
		}
	}

	for i := max - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return strings.TrimSpace(string(runes[:i])) + "..."
		}
	}

	return strings.TrimSpace(string(runes[:max])) + "..."
}
