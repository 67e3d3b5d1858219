package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	FilterAll     TypeFilter = "all"
	FilterIncome  TypeFilter = "income"
	FilterExpense TypeFilter = "expense"
)

// Fallback labels used when a record carries no category.
const (
	DefaultExpenseCategory = "Otros"
	DefaultIncomeCategory  = "Ingreso"
)

const maxDescriptionLength = 200

type (
	TransactionType string

	// TypeFilter selects transactions by type; FilterAll matches every record.
	TypeFilter string

	Transaction struct {
		ID          string
		UserID      string
		Amount      decimal.Decimal // non-negative; the sign lives in Type
		Type        TransactionType
		Category    string
		Description string
		CreatedAt   time.Time
	}

	// TransactionInput is the untrusted shape of a transaction submitted by a client.
	TransactionInput struct {
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFilter      = errors.New("invalid type filter")
	ErrEmptyCategory      = errors.New("empty category")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxDescriptionLength)
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label returns the Spanish direction label shown to users.
func (t TransactionType) Label() string {
	if t == Income {
		return "Ingreso"
	}
	return "Gasto"
}

// ParseTransactionType accepts the canonical values plus the Spanish labels.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "ingreso":
		return Income, nil
	case "expense", "gasto":
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// ParseTypeFilter maps a query value to a filter. Empty means FilterAll.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterIncome, FilterExpense:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// Matches reports whether a transaction of type t passes the filter.
func (f TypeFilter) Matches(t TransactionType) bool {
	switch f {
	case FilterAll, "":
		return true
	default:
		return string(f) == string(t)
	}
}

// DefaultCategory returns the fallback category for a transaction type.
func DefaultCategory(t TransactionType) string {
	if t == Income {
		return DefaultIncomeCategory
	}
	return DefaultExpenseCategory
}

func (tx Transaction) IsIncome() bool {
	return tx.Type == Income
}

// CategoryOrDefault returns the trimmed category, or the type default when blank.
func (tx Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(tx.Category); c != "" {
		return c
	}
	return DefaultCategory(tx.Type)
}

// Normalized returns a copy with the boundary invariants applied:
// non-negative amount rounded to AmountScale, trimmed text and a
// type-appropriate category.
func (tx Transaction) Normalized() Transaction {
	tx.Amount = tx.Amount.Abs().Round(AmountScale)
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Category = tx.CategoryOrDefault()
	return tx
}

func (tx Transaction) Validate() error {
	if !tx.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !tx.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len([]rune(tx.Description)) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Parse converts client input into a validated transaction for the given user.
// ID and CreatedAt are left for the store to assign.
func (in TransactionInput) Parse(userID string) (Transaction, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	typ, err := ParseTransactionType(in.Type)
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
	}.Normalized()
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
