package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetmanager/internal/core"
	ports "budgetmanager/internal/sheets"
)

var _ ports.ActivityWriter = (*Store)(nil)

// Store is an in-process audit sheet.
type Store struct {
	mu      sync.Mutex
	rows    []core.ActivityEntry
	failErr error
	fails   int
}

func New() *Store {
	return &Store{}
}

// AppendActivity stores the entry and returns a synthetic row reference.
func (s *Store) AppendActivity(_ context.Context, e core.ActivityEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return "", s.failErr
	}
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// FailNext makes the next n appends return err.
func (s *Store) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails = n
	s.failErr = err
}

// Rows returns a copy of every appended entry in order.
func (s *Store) Rows() []core.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ActivityEntry(nil), s.rows...)
}
