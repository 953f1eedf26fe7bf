// Package storagetest checks that an ExpenseStore honours the store contract.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"zoexpense/internal/core"
	"zoexpense/internal/storage"
)

// Expense builds a valid record for tests.
func Expense(id string, amount core.Money, c core.Category, date string, ts int64) core.Expense {
	return core.Expense{ID: id, Title: "expense " + id, Amount: amount, Category: c, Date: date, TimestampMillis: ts}
}

// Run exercises newStore against the shared ExpenseStore behaviour.
func Run(t *testing.T, newStore func(t *testing.T) storage.ExpenseStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("append and get", func(t *testing.T) {
		s := newStore(t)
		e := Expense("a", 1234, core.Food, "2025-01-02", 10)
		e.Notes = "with rice"
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
		got, err := s.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != e {
			t.Fatalf("Get = %+v, want %+v", got, e)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("append rejects invalid", func(t *testing.T) {
		s := newStore(t)
		bad := Expense("", 100, core.Food, "2025-01-02", 1)
		if err := s.Append(ctx, bad); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("append replaces same id", func(t *testing.T) {
		s := newStore(t)
		if err := s.Append(ctx, Expense("a", 100, core.Food, "2025-01-02", 1)); err != nil {
			t.Fatal(err)
		}
		if err := s.Append(ctx, Expense("a", 900, core.Travel, "2025-01-02", 1)); err != nil {
			t.Fatal(err)
		}
		list, err := s.ListByDate(ctx, "2025-01-02")
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 1 || list[0].Amount != 900 || list[0].Category != core.Travel {
			t.Fatalf("ListByDate = %+v", list)
		}
	})

	t.Run("list by date and range", func(t *testing.T) {
		s := newStore(t)
		for _, e := range []core.Expense{
			Expense("1", 100, core.Food, "2025-01-01", 1),
			Expense("2", 200, core.Food, "2025-01-02", 5),
			Expense("3", 300, core.Staff, "2025-01-02", 9),
			Expense("4", 400, core.Other, "2025-01-03", 2),
			Expense("5", 500, core.Other, "2025-01-04", 3),
		} {
			if err := s.Append(ctx, e); err != nil {
				t.Fatal(err)
			}
		}

		day, err := s.ListByDate(ctx, "2025-01-02")
		if err != nil {
			t.Fatal(err)
		}
		if ids(day) != "32" {
			t.Fatalf("ListByDate order = %s, want 32", ids(day))
		}

		rng, err := s.ListByDateRange(ctx, "2025-01-02", "2025-01-03")
		if err != nil {
			t.Fatal(err)
		}
		if ids(rng) != "324" {
			t.Fatalf("ListByDateRange = %s, want 324", ids(rng))
		}

		empty, err := s.ListByDate(ctx, "2024-12-31")
		if err != nil {
			t.Fatal(err)
		}
		if empty == nil || len(empty) != 0 {
			t.Fatalf("expected empty non-nil list, got %v", empty)
		}

		sum, err := s.SumByDate(ctx, "2025-01-02")
		if err != nil {
			t.Fatal(err)
		}
		if sum != 500 {
			t.Fatalf("SumByDate = %d, want 500", sum)
		}
		none, err := s.SumByDate(ctx, "2030-01-01")
		if err != nil || none != 0 {
			t.Fatalf("SumByDate(empty) = %d, %v", none, err)
		}
	})
}

func ids(list []core.Expense) string {
	var s string
	for _, e := range list {
		s += e.ID
	}
	return s
}
