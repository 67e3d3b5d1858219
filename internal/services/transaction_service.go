package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/store"
	"fintrack/internal/summary"
)

const (
	DefaultStoreTimeout = 7 * time.Second
	listCacheTTL        = 5 * time.Minute
	listCacheSize       = 1000
)

var ErrCategoryExists = errors.New("category already exists")

// TransactionService orchestrates transaction and category operations
// across the store, the read cache and change publication.
type TransactionService struct {
	store        store.Store
	publisher    events.Publisher
	lists        *cache.LRUCache[[]core.Transaction]
	storeTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

func NewTransactionService(st store.Store, publisher events.Publisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:        st,
		publisher:    publisher,
		lists:        cache.NewLRUCache[[]core.Transaction](listCacheSize, listCacheTTL),
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
		logger:       logger.With("component", "transactions"),
	}
}

// Cache exposes the per-user list cache for cleanup registration.
func (s *TransactionService) Cache() cache.Cleaner {
	return s.lists
}

// CreateTransaction validates input, stores it and announces the change.
// Publication failures are logged; the transaction is already saved.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrUserNotResolved
	}
	tx, err := in.Parse(userID)
	if err != nil {
		return core.Transaction{}, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	saved, err := s.store.InsertTransaction(storeCtx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: save transaction: %w", core.ErrWrite, err)
	}

	s.invalidate(userID)
	s.logger.InfoContext(ctx, "Transaction created",
		"user_id", userID,
		"transaction_id", saved.ID,
		"type", saved.Type,
		"amount", saved.Amount.String(),
		"category", saved.Category)

	change := events.NewChange(events.ResourceTransactions, userID, s.now())
	change.TransactionID = saved.ID
	s.publish(ctx, change)

	return saved, nil
}

// AllTransactions returns the user's transactions newest first, served from
// the read cache when possible.
func (s *TransactionService) AllTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrUserNotResolved
	}
	if txs, ok := s.lists.Get(userID); ok {
		return txs, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	txs, err := s.store.ListTransactions(storeCtx, userID, store.Query{Type: core.FilterAll})
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", core.ErrFetch, err)
	}
	// Results of a request whose caller already left are not cached.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetch, ctx.Err())
	}
	s.lists.Set(userID, txs)
	return txs, nil
}

// ListTransactions filters the user's history by type and search text and
// keeps at most limit results (0 means all).
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filter core.TypeFilter, search string, limit int) ([]core.Transaction, error) {
	txs, err := s.AllTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := analytics.Filter(txs, filter, search)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type summaryLister struct{ s *TransactionService }

func (l summaryLister) ListTransactions(ctx context.Context, userID string, q store.Query) ([]core.Transaction, error) {
	return l.s.ListTransactions(ctx, userID, q.Type, "", q.Limit)
}

// SummaryLister lets summaries read through the same cache as the dashboard.
func (s *TransactionService) SummaryLister() summary.TransactionLister {
	return summaryLister{s: s}
}

// Categories returns the defaults for t merged with the user's own.
func (s *TransactionService) Categories(ctx context.Context, userID string, t core.TransactionType) ([]string, error) {
	if userID == "" {
		return nil, core.ErrUserNotResolved
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	custom, err := s.store.ListCategories(storeCtx, userID, t)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %w", core.ErrFetch, err)
	}
	return core.MergeUnique(core.DefaultCategories(t), custom), nil
}

// CategoryResult is a created category plus a close existing one, if any.
type CategoryResult struct {
	Name       string   `json:"name"`
	Suggestion string   `json:"suggestion,omitempty"`
	Categories []string `json:"categories"`
}

// CreateCategory saves a custom category unless an equivalent one exists.
func (s *TransactionService) CreateCategory(ctx context.Context, userID string, t core.TransactionType, name string) (CategoryResult, error) {
	name = strings.TrimSpace(name)
	if core.Normalize(name) == "" {
		return CategoryResult{}, core.ErrEmptyCategory
	}
	if !t.IsValid() {
		return CategoryResult{}, core.ErrInvalidType
	}

	existing, err := s.Categories(ctx, userID, t)
	if err != nil {
		return CategoryResult{}, err
	}
	if core.ContainsCategory(existing, name) {
		return CategoryResult{}, ErrCategoryExists
	}
	suggestion, _ := core.SuggestCategory(existing, name)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.SaveCategory(storeCtx, userID, t, name); err != nil {
		return CategoryResult{}, fmt.Errorf("%w: save category: %w", core.ErrWrite, err)
	}

	s.publish(ctx, events.NewChange(events.ResourceCategories, userID, s.now()))

	return CategoryResult{
		Name:       name,
		Suggestion: suggestion,
		Categories: core.MergeUnique(existing, []string{name}),
	}, nil
}

// Invalidate drops cached data made stale by c.
func (s *TransactionService) Invalidate(c events.Change) {
	if c.Resource == events.ResourceTransactions {
		s.invalidate(c.UserID)
	}
}

// WatchChanges invalidates the read cache for every change received until
// ctx is done or changes is closed.
func (s *TransactionService) WatchChanges(ctx context.Context, changes <-chan events.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.Invalidate(c)
		}
	}
}

func (s *TransactionService) invalidate(userID string) {
	s.lists.Delete(userID)
}

func (s *TransactionService) publish(ctx context.Context, c events.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change",
			"resource", c.Resource,
			"user_id", c.UserID,
			"error", err)
	}
}
