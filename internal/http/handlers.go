package http

import (
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// transactionView is a transaction as the client renders it.
type transactionView struct {
	ID              string    `json:"id"`
	Amount          string    `json:"amount"`
	AmountFormatted string    `json:"amount_formatted"`
	Type            string    `json:"type"`
	TypeLabel       string    `json:"type_label"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Date            string    `json:"date"`
}

func newTransactionView(tx core.Transaction) transactionView {
	return transactionView{
		ID:              tx.ID,
		Amount:          tx.Amount.StringFixed(2),
		AmountFormatted: core.FormatCurrency(tx.Amount),
		Type:            string(tx.Type),
		TypeLabel:       tx.Type.Label(),
		Category:        tx.CategoryOrDefault(),
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt,
		Date:            core.FormatDate(tx.CreatedAt),
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionView(tx))
	}
	return out
}

type shareView struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Percent string `json:"percent,omitempty"`
}

type dashboardView struct {
	Income            string            `json:"income"`
	Expenses          string            `json:"expenses"`
	Balance           string            `json:"balance"`
	SavingsRate       string            `json:"savings_rate"`
	ExpenseRatio      string            `json:"expense_ratio,omitempty"`
	IncomeTrend       string            `json:"income_trend"`
	Breakdown         []shareView       `json:"breakdown"`
	Recent            []transactionView `json:"recent"`
	ExpenseCategories []string          `json:"expense_categories"`
	IncomeCategories  []string          `json:"income_categories"`
}

func newDashboardView(d services.Dashboard) dashboardView {
	ov := d.Overview
	return dashboardView{
		Income:            core.FormatCurrency(ov.Stats.Income),
		Expenses:          core.FormatCurrency(ov.Stats.Expenses),
		Balance:           core.FormatCurrency(ov.Stats.Balance),
		SavingsRate:       core.FormatPercent(ov.Stats.SavingsRate),
		ExpenseRatio:      ov.ExpenseRatio,
		IncomeTrend:       core.FormatPercent(ov.IncomeTrend),
		Breakdown:         newShareViews(ov.Breakdown),
		Recent:            newTransactionViews(ov.Recent),
		ExpenseCategories: d.ExpenseCategories,
		IncomeCategories:  d.IncomeCategories,
	}
}

func newShareViews(shares []analytics.CategoryShare) []shareView {
	out := make([]shareView, 0, len(shares))
	for _, sh := range shares {
		out = append(out, shareView{Name: sh.Name, Value: core.FormatCurrency(sh.Value), Percent: sh.Percent})
	}
	return out
}

type userView struct {
	core.User
	DisplayName string `json:"display_name"`
}

func newUserView(u core.User) userView {
	return userView{User: u, DisplayName: u.DisplayName()}
}
