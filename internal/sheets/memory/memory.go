// Package memory is the in-memory ledger backend, used for tests and for
// running the server without a workbook on disk.
package memory

import (
	"context"
	"sync"

	"lancamentos/internal/core"
)

type Store struct {
	mu      sync.Mutex
	records []core.Record
}

func New() *Store {
	return &Store{}
}

// Seed replaces the stored records, preserving ids as given.
func (s *Store) Seed(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Record(nil), records...)
}

// Load returns a copy of the ledger so callers cannot mutate the store.
func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return core.Ledger{Records: out}, nil
}

// Append validates the candidate, assigns the next id and stores the record.
func (s *Store) Append(_ context.Context, c core.Candidate) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l := core.Ledger{Records: s.records}
	id := l.NextID()
	s.records = append(s.records, core.NewRecord(id, c))
	return id, nil
}
