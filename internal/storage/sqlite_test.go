package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"zoexpense/internal/core"
	"zoexpense/internal/storage"
	"zoexpense/internal/storage/storagetest"
)

func newSQLite(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ExpenseStore { return newSQLite(t) })
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, storagetest.Expense("x", 4200, core.Utility, "2025-02-01", 7)); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	// migrations must be a no-op on an existing schema
	repo, err = storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	got, err := repo.Get(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 4200 || got.Category != core.Utility {
		t.Fatalf("Get = %+v", got)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
