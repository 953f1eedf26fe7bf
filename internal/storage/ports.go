package storage

import (
	"context"
	"errors"

	"zoexpense/internal/core"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("expense not found")

// ExpenseStore persists expense records.
//
// Append replaces an existing record with the same id. List methods return
// records by descending timestamp; date bounds are inclusive yyyy-MM-dd strings.
type ExpenseStore interface {
	Append(ctx context.Context, e core.Expense) error
	Get(ctx context.Context, id string) (core.Expense, error)
	ListByDate(ctx context.Context, date string) ([]core.Expense, error)
	ListByDateRange(ctx context.Context, start, end string) ([]core.Expense, error)
	SumByDate(ctx context.Context, date string) (core.Money, error)
	Close() error
}
