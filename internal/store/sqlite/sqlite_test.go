package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestRepository(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("re-running migrations should be a no-op, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	repo := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.ListTransactions(ctx, "u1", store.Query{Type: core.FilterAll}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
