package core

import "github.com/shopspring/decimal"

// CategoryTotal is the summed magnitude of the transactions in one category.
type CategoryTotal struct {
	Name  string
	Value decimal.Decimal
}

// Stats holds the income/expense totals of a transaction set.
type Stats struct {
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Balance     decimal.Decimal
	SavingsRate float64 // percent of income kept; 0 when there is no income
}
