package enhance

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	preamblePattern = regexp.MustCompile(`(?i)^\s*(?:here(?:'s|’s| is) an enhanced version|enhanced version|enhanced text|generated content|content|result|output)\s*:\s*`)
	listMarker      = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,2}[.)])\s+`)
	boldStars       = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	boldUnderscores = regexp.MustCompile(`__([^_\n]+?)__`)
	italicStars     = regexp.MustCompile(`\*([^*\s][^*\n]*?)\*`)
)

// Normalize removes conversational scaffolding from generated text: emphasis markers,
// preamble labels and list markers. Cleanup repeats until the text stops changing, so
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	text := raw
	for {
		next := normalizePass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func normalizePass(text string) string {
	text = strings.TrimSpace(text)
	text = preamblePattern.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(listMarker.ReplaceAllString(line, ""), unicode.IsSpace)
	}
	text = strings.Join(lines, "\n")

	text = boldStars.ReplaceAllString(text, "$1")
	text = boldUnderscores.ReplaceAllString(text, "$1")
	text = italicStars.ReplaceAllString(text, "$1")

	text = strings.TrimSpace(text)
	text = strings.Trim(text, "*_")
	return strings.TrimSpace(text)
}

// OneWord reduces generated text to a single title-cased alphabetic token.
// It returns ErrNoWord when the first token has no letters.
func OneWord(raw string) (string, error) {
	fields := strings.Fields(Normalize(raw))
	if len(fields) == 0 {
		return "", ErrNoWord
	}
	word := LettersOnly(fields[0])
	if word == "" {
		return "", ErrNoWord
	}
	return cases.Title(language.English).String(word), nil
}

// LettersOnly drops every non-letter rune from s.
func LettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}
