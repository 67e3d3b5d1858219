package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestRow(t *testing.T) {
	tx := core.Transaction{
		ID:          "tx-1",
		Amount:      decimal.RequireFromString("1234.5"),
		Type:        core.Expense,
		Description: "súper",
		CreatedAt:   time.Date(2025, 10, 15, 9, 30, 0, 0, time.FixedZone("ART", -3*3600)),
	}

	got := Row(tx)
	want := []string{"2025-10-15 12:30:00", "Gasto", "1234.50", core.DefaultExpenseCategory, "súper", "tx-1"}
	if len(got) != len(Header) {
		t.Fatalf("row has %d cells, header has %d", len(got), len(Header))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d (%s) = %q, want %q", i, Header[i], got[i], want[i])
		}
	}
	if got[IDColumn] != tx.ID {
		t.Errorf("IDColumn points at %q", got[IDColumn])
	}
}
