package core

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	defaultExpenseCategories = []string{
		"Alimentación", "Vivienda", "Entretenimiento", "Transporte",
		"Servicios", "Salud", "Educación", "Otros",
	}
	defaultIncomeCategories = []string{"Salario", "Otros"}
)

// DefaultCategories returns a fresh copy of the built-in categories for a type.
func DefaultCategories(t TransactionType) []string {
	if t == Income {
		return append([]string(nil), defaultIncomeCategories...)
	}
	return append([]string(nil), defaultExpenseCategories...)
}

// Normalize returns the comparison key of a category label: lower-cased,
// without diacritics, trimmed. Never use it for display.
func Normalize(label string) string {
	lower := cases.Lower(language.Spanish).String(label)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lower)
	if err != nil {
		stripped = lower
	}
	return strings.TrimSpace(stripped)
}

// MergeUnique returns base first, in order and de-duplicated, followed by the
// additions that are not already present sorted ignoring case and accents.
// Labels are compared by Normalize; blank labels are dropped.
func MergeUnique(base, additions []string) []string {
	seen := make(map[string]struct{}, len(base)+len(additions))
	out := make([]string, 0, len(base)+len(additions))

	for _, label := range base {
		label = strings.TrimSpace(label)
		key := Normalize(label)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}

	var extra []string
	for _, label := range additions {
		label = strings.TrimSpace(label)
		key := Normalize(label)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		extra = append(extra, label)
	}

	col := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(extra, func(i, j int) bool {
		return col.CompareString(extra[i], extra[j]) < 0
	})

	return append(out, extra...)
}

// ContainsCategory reports whether list already holds label under Normalize.
func ContainsCategory(list []string, label string) bool {
	key := Normalize(label)
	if key == "" {
		return false
	}
	for _, c := range list {
		if Normalize(c) == key {
			return true
		}
	}
	return false
}

// SuggestCategory returns the existing label closest to label when it is a
// likely typo of it. Exact matches are not suggestions.
func SuggestCategory(list []string, label string) (string, bool) {
	key := Normalize(label)
	if key == "" {
		return "", false
	}
	maxDist := 2
	if utf8.RuneCountInString(key) <= 4 {
		maxDist = 1
	}

	best, bestDist := "", maxDist+1
	for _, c := range list {
		d := levenshtein.ComputeDistance(key, Normalize(c))
		if d == 0 {
			return "", false
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
