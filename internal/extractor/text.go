package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(` {2,}`)
)

// Normalize strips control characters other than newline and tab, collapses
// three or more newlines to two and runs of spaces to one, and trims the
// result.
func Normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate keeps the first maxChars characters of text and appends
// TruncationMarker when anything was cut.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + TruncationMarker
}
