// Package memory keeps exported rows in process. It backs the worker when no
// spreadsheet is configured and stands in for Google Sheets in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows [][]string
	ids  map[string]int
}

var _ ports.Exporter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{ids: make(map[string]int)}
}

// Append stores the row and returns a synthetic row reference.
func (s *Sheet) Append(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		return "", fmt.Errorf("transaction has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(tx))
	s.ids[tx.ID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Sheet) Contains(_ context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[transactionID]
	return ok, nil
}

// Rows returns a copy of the exported rows in append order.
func (s *Sheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
