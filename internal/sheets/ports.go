// Package sheets declares the spreadsheet export ports. The google package
// writes to Google Sheets; memory keeps rows in process.
package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionAppender interface {
		// Append writes one row for tx and returns a reference to it.
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	ExportIndex interface {
		// Contains reports whether a row for the transaction ID was already written.
		Contains(ctx context.Context, transactionID string) (bool, error)
	}

	Exporter interface {
		TransactionAppender
		ExportIndex
	}
)

// Header is the first row of an export sheet.
var Header = []string{"Fecha", "Tipo", "Monto", "Categoría", "Descripción", "ID"}

// IDColumn is the zero-based column holding the transaction ID.
const IDColumn = 5

// Row renders tx as the cells of one export row, in Header order.
func Row(tx core.Transaction) []string {
	return []string{
		tx.CreatedAt.UTC().Format(time.DateTime),
		tx.Type.Label(),
		tx.Amount.StringFixed(2),
		tx.CategoryOrDefault(),
		tx.Description,
		tx.ID,
	}
}
