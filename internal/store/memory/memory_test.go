package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()

	// No files -> empty store
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("expected no error for missing seeds, got %v", err)
	}
	if txs, _ := s.ListTransactions(context.Background(), "u1", store.Query{}); len(txs) != 0 {
		t.Fatalf("expected empty store, got %d transactions", len(txs))
	}

	seed := `[
		{"user_id":"u1","amount":"1500","type":"expense","category":"Comida","created_at":"2025-10-01T10:00:00Z"},
		{"user_id":"u1","amount":"oops","type":"income","category":"","created_at":"2025-10-02T10:00:00Z"},
		{"user_id":"u1","amount":-20,"type":"unknown","category":"  ","created_at":"2025-10-03T10:00:00Z"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	cats := "# comments are skipped\nu1:expense:Mascotas\nu1:gasto:mascotas\nbroken line\nu1:income:Freelance\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(cats), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed load failed: %v", err)
	}
	txs, err := s.ListTransactions(context.Background(), "u1", store.Query{})
	if err != nil || len(txs) != 3 {
		t.Fatalf("expected 3 seeded transactions, got %d (err=%v)", len(txs), err)
	}
	newest := txs[0]
	if newest.Type != core.Expense || newest.Category != core.DefaultExpenseCategory || newest.Amount.String() != "20" {
		t.Fatalf("unexpected coercion of newest seed: %+v", newest)
	}
	if !txs[1].Amount.IsZero() || txs[1].Category != core.DefaultIncomeCategory {
		t.Fatalf("invalid amount should coerce to zero with income default: %+v", txs[1])
	}

	got, _ := s.ListCategories(context.Background(), "u1", core.Expense)
	want := map[string]bool{"Comida": true, "mascotas": true, "Otros": true}
	if len(got) != len(want) {
		t.Fatalf("unexpected categories %v", got)
	}
	for _, c := range got {
		if !want[c] {
			t.Fatalf("unexpected category %q in %v", c, got)
		}
	}
}

func TestNewFromFilesBadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatal("expected parse error")
	}
}
