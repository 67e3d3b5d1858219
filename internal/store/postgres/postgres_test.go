package postgres

import (
	"context"
	"os"
	"testing"

	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

// Runs only when POSTGRES_TEST_DSN points at a disposable database.
func TestPostgresRepo(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		repo, err := Open(context.Background(), dsn)
		if err != nil {
			t.Fatalf("open repo: %v", err)
		}
		if _, err := repo.conn.Exec(context.Background(), `TRUNCATE transactions, categories, users`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestSortedValues(t *testing.T) {
	got := sortedValues(map[string]string{"b": "Bar", "a": "Agua", "c": "Comida"})
	want := []string{"Agua", "Bar", "Comida"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortedValues() = %v, want %v", got, want)
		}
	}
}
