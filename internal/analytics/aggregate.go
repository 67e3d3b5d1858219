// Package analytics computes the derived figures shown on the dashboard:
// totals, savings rate, per-category breakdowns and the transaction filter.
// Everything here is a pure function of its input.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals sums income and expenses in a single pass. Records that are
// not income count as expenses. The savings rate is 0 when there is no income.
func ComputeTotals(txs []core.Transaction) core.Stats {
	var stats core.Stats
	for _, tx := range txs {
		amount := tx.Amount.Abs()
		if tx.IsIncome() {
			stats.Income = stats.Income.Add(amount)
		} else {
			stats.Expenses = stats.Expenses.Add(amount)
		}
	}
	stats.Balance = stats.Income.Sub(stats.Expenses)
	if stats.Income.IsPositive() {
		stats.SavingsRate = stats.Balance.Div(stats.Income).Mul(hundred).InexactFloat64()
	}
	return stats
}

// AggregateByCategory groups the transactions matching filter by category and
// sums their magnitudes. Categories are merged under core.Normalize and keep
// the first spelling seen. Zero totals are dropped. The result is ordered by
// value descending, ties keeping first-seen order.
func AggregateByCategory(txs []core.Transaction, filter core.TypeFilter) []core.CategoryTotal {
	index := make(map[string]int)
	var totals []core.CategoryTotal

	for _, tx := range txs {
		if !filter.Matches(tx.Type) {
			continue
		}
		amount := tx.Amount.Abs()
		if amount.IsZero() {
			continue
		}
		name := tx.CategoryOrDefault()
		key := core.Normalize(name)
		if i, ok := index[key]; ok {
			totals[i].Value = totals[i].Value.Add(amount)
			continue
		}
		index[key] = len(totals)
		totals = append(totals, core.CategoryTotal{Name: name, Value: amount})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value.GreaterThan(totals[j].Value)
	})
	return totals
}

// Share returns value as a percentage of total. ok is false when total is not
// positive, in which case no percentage should be shown.
func Share(value, total decimal.Decimal) (pct float64, ok bool) {
	if !total.IsPositive() {
		return 0, false
	}
	return value.Div(total).Mul(hundred).InexactFloat64(), true
}

// ExpenseRatio is the share of income spent. ok is false without income.
func ExpenseRatio(stats core.Stats) (float64, bool) {
	return Share(stats.Expenses, stats.Income)
}

// IncomeTrend is the percentage change of income between the calendar month
// containing now and the month before it. It is 0 when the previous month had
// no income.
func IncomeTrend(txs []core.Transaction, now time.Time) float64 {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonth := thisMonth.AddDate(0, -1, 0)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	var current, previous decimal.Decimal
	for _, tx := range txs {
		if !tx.IsIncome() {
			continue
		}
		at := tx.CreatedAt.In(now.Location())
		switch {
		case !at.Before(thisMonth) && at.Before(nextMonth):
			current = current.Add(tx.Amount.Abs())
		case !at.Before(prevMonth) && at.Before(thisMonth):
			previous = previous.Add(tx.Amount.Abs())
		}
	}
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64()
}

// Recent returns the n newest transactions, assuming txs is newest-first.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	if n < 0 || n >= len(txs) {
		return txs
	}
	return txs[:n]
}
