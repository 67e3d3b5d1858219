package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 6

// CategoryShare is a category total with its share of all expenses.
// Percent is empty when there are no expenses to compare against.
type CategoryShare struct {
	Name    string          `json:"name"`
	Value   decimal.Decimal `json:"value"`
	Percent string          `json:"percent,omitempty"`
}

// Overview is everything the dashboard renders for one user.
type Overview struct {
	Stats        core.Stats
	ExpenseRatio string // "" without income
	IncomeTrend  float64
	Breakdown    []CategoryShare
	Recent       []core.Transaction
}

// BuildOverview derives the dashboard figures from a newest-first list.
func BuildOverview(txs []core.Transaction, now time.Time) Overview {
	stats := ComputeTotals(txs)
	ov := Overview{
		Stats:       stats,
		IncomeTrend: IncomeTrend(txs, now),
		Recent:      Recent(txs, RecentLimit),
	}
	if ratio, ok := ExpenseRatio(stats); ok {
		ov.ExpenseRatio = core.FormatPercent(ratio)
	}

	totals := AggregateByCategory(txs, core.FilterExpense)
	var sum decimal.Decimal
	for _, t := range totals {
		sum = sum.Add(t.Value)
	}
	ov.Breakdown = make([]CategoryShare, 0, len(totals))
	for _, t := range totals {
		share := CategoryShare{Name: t.Name, Value: t.Value}
		if pct, ok := Share(t.Value, sum); ok {
			share.Percent = core.FormatPercent(pct)
		}
		ov.Breakdown = append(ov.Breakdown, share)
	}
	return ov
}
