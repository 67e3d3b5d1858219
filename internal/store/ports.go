// Package store declares the persistence ports used by the services. The
// memory, sqlite and postgres packages implement them.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Query narrows a transaction listing. A zero Limit means no limit.
type Query struct {
	Type  core.TypeFilter
	Limit int
}

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// ListTransactions returns the user's transactions newest first.
		ListTransactions(ctx context.Context, userID string, q Query) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		// InsertTransaction stores tx and returns it with ID and CreatedAt set.
		InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	CategoryStore interface {
		// ListCategories returns the categories the user has saved or used
		// for the given type, sorted by name.
		ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]string, error)
		// SaveCategory upserts a custom category. A later save of the same
		// normalized name replaces the stored spelling.
		SaveCategory(ctx context.Context, userID string, t core.TransactionType, name string) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateProfile(ctx context.Context, id string, p core.Profile) (core.User, error)
	}
)

// Store is the full set of ports a backend provides.
type Store interface {
	TransactionReader
	TransactionWriter
	CategoryStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
