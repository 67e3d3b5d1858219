// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals. Parsing is strict for user input and
// lenient for records read back from a store or a seed file.
package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fraction digits kept for user amounts.
const AmountScale = 2

// ParseAmount parses a positive amount typed by a user.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When
// both appear, the last one is the decimal separator and the other is treated
// as a thousands separator ("1.234,50" -> 1234.50).
// The result is rounded half away from zero to AmountScale places.
// Returns ErrInvalidAmount for malformed, negative or zero values, including
// amounts that round to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountScale)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return strings.Replace(s, ",", ".", 1)
	default:
		return s
	}
}

// CoerceAmount turns an arbitrary stored value into a non-negative amount.
// Anything that cannot be read as a number becomes zero.
func CoerceAmount(v any) decimal.Decimal {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		d = x
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(normalizeSeparators(strings.TrimSpace(x)))
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	return d.Abs()
}

// RawTransaction mirrors a loosely typed transaction row as found in seed
// files and third-party exports.
type RawTransaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      any       `json:"amount"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Coerce converts the raw row into a Transaction. Unknown types are read as
// expenses, matching how totals treat any non-income record.
func (r RawTransaction) Coerce() Transaction {
	typ, err := ParseTransactionType(r.Type)
	if err != nil {
		typ = Expense
	}
	return Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      CoerceAmount(r.Amount),
		Type:        typ,
		Category:    r.Category,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}.Normalized()
}
