package analytics

import (
	"strings"

	"fintrack/internal/core"
)

// Filter keeps the transactions matching typeFilter whose description or
// category contains search, ignoring case. An empty search matches all.
// Input order is preserved.
func Filter(txs []core.Transaction, typeFilter core.TypeFilter, search string) []core.Transaction {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !typeFilter.Matches(tx.Type) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(tx.Description), needle) &&
			!strings.Contains(strings.ToLower(tx.Category), needle) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
