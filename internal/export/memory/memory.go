package memory

import (
	"context"
	"fmt"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/export"
)

// Store is an in-memory export target used in tests and local development
// without Google credentials.
type Store struct {
	mu   sync.Mutex
	rows map[int64]core.Transaction
}

var (
	_ export.RowAppender = (*Store)(nil)
	_ export.RowDeleter  = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: make(map[int64]core.Transaction)}
}

// AppendTransaction stores the row keyed by transaction ID and returns a
// synthetic reference. Re-exporting the same transaction overwrites the row,
// matching the last-write-wins behavior of the sheet adapter.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = t
	return fmt.Sprintf("mem:%d", t.ID), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Rows returns a snapshot of everything exported so far.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.rows))
	for _, t := range s.rows {
		out = append(out, t)
	}
	return out
}
