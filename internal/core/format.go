package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// FormatCurrency renders an ARS amount without fraction digits, e.g. "$ 1.234"
// or "-$ 1.234". Halves round away from zero.
func FormatCurrency(d decimal.Decimal) string {
	rounded := d.Round(0)
	neg := rounded.IsNegative()
	s := groupThousands(rounded.Abs().String())
	if neg {
		return "-$ " + s
	}
	return "$ " + s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate renders a timestamp as a two-digit day, short Spanish month and
// year, e.g. "05 oct 2025". The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// FormatShortDate is FormatDate without the day padding, as used in lists.
func FormatShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
