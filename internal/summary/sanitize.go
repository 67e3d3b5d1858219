package summary

import (
	"iter"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	lineBreaks    = regexp.MustCompile(`(?:\r?\n)+`)
	leadingMarker = regexp.MustCompile(`^[\s>*#\-]+`)
	emphasis      = strings.NewReplacer("**", "", "__", "", "*", "")
	italic        = regexp.MustCompile(`_([^_\s](?:[^_]*[^_\s])?)_`)
)

// SanitizeSummary splits generated text into display paragraphs. Leading
// quote, list and heading markers and emphasis markers are removed and blank
// lines dropped. The sequence is lazy and can be ranged over any number of
// times.
func SanitizeSummary(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lineBreaks.Split(raw, -1) {
			line = leadingMarker.ReplaceAllString(line, "")
			line = strings.TrimSpace(stripItalics(emphasis.Replace(line)))
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// Paragraphs collects SanitizeSummary into a slice.
func Paragraphs(raw string) []string {
	return slices.Collect(SanitizeSummary(raw))
}

// stripItalics removes single-underscore emphasis. Underscores inside words
// such as snake_case identifiers are kept.
func stripItalics(line string) string {
	var b strings.Builder
	last := 0
	for _, m := range italic.FindAllStringSubmatchIndex(line, -1) {
		if wordRuneBefore(line, m[0]) || wordRuneAt(line, m[1]) {
			continue
		}
		b.WriteString(line[last:m[0]])
		b.WriteString(line[m[2]:m[3]])
		last = m[1]
	}
	b.WriteString(line[last:])
	return b.String()
}

func wordRuneBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordRuneAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
