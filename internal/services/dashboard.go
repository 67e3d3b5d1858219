package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Dashboard is the data behind the dashboard view.
type Dashboard struct {
	Overview          analytics.Overview
	ExpenseCategories []string
	IncomeCategories  []string
}

// Dashboard loads transactions and both category lists concurrently. The
// first failure cancels the other fetches.
func (s *TransactionService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if userID == "" {
		return Dashboard{}, core.ErrUserNotResolved
	}

	var (
		txs             []core.Transaction
		expense, income []string
		now             = s.now()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.AllTransactions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.Categories(gctx, userID, core.Expense)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.Categories(gctx, userID, core.Income)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Overview:          analytics.BuildOverview(txs, now),
		ExpenseCategories: expense,
		IncomeCategories:  income,
	}, nil
}
