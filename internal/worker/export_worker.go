package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

const defaultExportTimeout = 30 * time.Second

// ExportWorker appends newly created transactions to the export sheet.
type ExportWorker struct {
	txs     store.TransactionReader
	sheet   sheets.Exporter
	timeout time.Duration
	logger  *slog.Logger
}

func NewExportWorker(txs store.TransactionReader, sheet sheets.Exporter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		txs:     txs,
		sheet:   sheet,
		timeout: defaultExportTimeout,
		logger:  logger.With("component", "worker"),
	}
}

// HandleChange exports the transaction named by c. Changes without a
// transaction, for unknown transactions or already exported ones are
// acknowledged without work. Any other failure is returned so the message
// is redelivered.
func (w *ExportWorker) HandleChange(ctx context.Context, c events.Change) error {
	if c.Resource != events.ResourceTransactions || c.TransactionID == "" {
		w.logger.DebugContext(ctx, "Skipping change without transaction",
			"resource", c.Resource,
			"user_id", c.UserID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	w.logger.InfoContext(ctx, "Processing change",
		"transaction_id", c.TransactionID,
		"version", c.Version)

	tx, err := w.txs.GetTransaction(ctx, c.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction not found, nothing to export", "transaction_id", c.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.UserID != c.UserID {
		w.logger.WarnContext(ctx, "Change user does not own transaction, skipping",
			"transaction_id", c.TransactionID,
			"user_id", c.UserID)
		return nil
	}

	exported, err := w.sheet.Contains(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("check export index: %w", err)
	}
	if exported {
		w.logger.InfoContext(ctx, "Transaction already exported", "transaction_id", tx.ID)
		return nil
	}

	ref, err := w.sheet.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully exported transaction",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"sheets_ref", ref,
		"amount", tx.Amount.String())
	return nil
}

// Backfill exports the user's transactions that are missing from the sheet,
// oldest first. It recovers from messages lost while the worker was down.
func (w *ExportWorker) Backfill(ctx context.Context, userID string) (int, error) {
	txs, err := w.txs.ListTransactions(ctx, userID, store.Query{})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	exported := 0
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		change := events.Change{Resource: events.ResourceTransactions, UserID: userID, TransactionID: tx.ID}
		found, err := w.sheet.Contains(ctx, tx.ID)
		if err != nil {
			return exported, fmt.Errorf("check export index: %w", err)
		}
		if found {
			continue
		}
		if err := w.HandleChange(ctx, change); err != nil {
			return exported, err
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		"user_id", userID,
		"total", len(txs),
		"exported", exported)
	return exported, nil
}
