// Package memory is an in-process ledger backend for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	table ledger.Table
}

func New() *Store {
	return &Store{}
}

// NewFromRows seeds a store with existing rows. The rows go through the
// same validation as appended ones.
func NewFromRows(rows []core.Transaction) (*Store, error) {
	s := New()
	if _, err := s.table.Append(rows); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Append(_ context.Context, txs ...core.Transaction) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Append(txs)
}

func (s *Store) NextID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.FormatID(s.table.NextNumber()), nil
}

func (s *Store) FindByID(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.table.Find(id)
	if !ok {
		return core.Transaction{}, core.NotFound("transaction %s", id)
	}
	return tx, nil
}

func (s *Store) Scan(_ context.Context, owner string, f ledger.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Scan(owner, f), nil
}

func (s *Store) Edit(_ context.Context, id string, fn ledger.Updater) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Edit(id, fn)
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Delete(id), nil
}

func (s *Store) ReplaceCategory(_ context.Context, owner string, from []string, to string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.ReplaceCategory(owner, from, to), nil
}

func (s *Store) Close() error { return nil }

var _ ledger.Store = (*Store)(nil)
