package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"zoexpense/internal/core"
	"zoexpense/internal/storage"
)

// Store keeps records in process memory. It is the default backend for
// development and tests.
type Store struct {
	mu    sync.RWMutex
	items []core.Expense
	index map[string]int
}

var _ storage.ExpenseStore = (*Store)(nil)

func New(seed ...core.Expense) *Store {
	s := &Store{index: make(map[string]int)}
	for _, e := range seed {
		_ = s.Append(context.Background(), e)
	}
	return s
}

// Append stores e, replacing any record with the same id.
func (s *Store) Append(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[e.ID]; ok {
		s.items[i] = e
		return nil
	}
	s.index[e.ID] = len(s.items)
	s.items = append(s.items, e)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return s.items[i], nil
}

func (s *Store) ListByDate(_ context.Context, date string) ([]core.Expense, error) {
	return s.filter(func(e core.Expense) bool { return e.Date == date }), nil
}

func (s *Store) ListByDateRange(_ context.Context, start, end string) ([]core.Expense, error) {
	return s.filter(func(e core.Expense) bool { return e.Date >= start && e.Date <= end }), nil
}

func (s *Store) SumByDate(_ context.Context, date string) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total core.Money
	for _, e := range s.items {
		if e.Date == date {
			total += e.Amount
		}
	}
	return total, nil
}

func (s *Store) Close() error { return nil }

// Len returns how many records are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// filter returns matches ordered like the SQL stores: newest first, then id.
func (s *Store) filter(keep func(core.Expense) bool) []core.Expense {
	s.mu.RLock()
	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Expense) int {
		return cmp.Or(cmp.Compare(b.TimestampMillis, a.TimestampMillis), cmp.Compare(a.ID, b.ID))
	})
	return out
}
