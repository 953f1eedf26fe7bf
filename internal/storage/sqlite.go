package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zoexpense/internal/core"

	_ "modernc.org/sqlite"
)

const (
	expenseColumns = `id, title, amount_minor, category, notes, receipt_url, timestamp_millis, date`

	upsertExpenseSQL = `INSERT INTO expenses (` + expenseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    title = excluded.title,
    amount_minor = excluded.amount_minor,
    category = excluded.category,
    notes = excluded.notes,
    receipt_url = excluded.receipt_url,
    timestamp_millis = excluded.timestamp_millis,
    date = excluded.date`

	getExpenseSQL      = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	listByDateSQL      = `SELECT ` + expenseColumns + ` FROM expenses WHERE date = ? ORDER BY timestamp_millis DESC, id`
	listByDateRangeSQL = `SELECT ` + expenseColumns + ` FROM expenses WHERE date BETWEEN ? AND ? ORDER BY timestamp_millis DESC, id`
	sumByDateSQL       = `SELECT COALESCE(SUM(amount_minor), 0) FROM expenses WHERE date = ?`
)

// SQLiteRepository is the ExpenseStore backed by a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ExpenseStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, upsertExpenseSQL,
		e.ID, e.Title, int64(e.Amount), e.Category.String(), e.Notes, e.ReceiptURL, e.TimestampMillis, e.Date)
	if err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount_minor", int64(e.Amount),
		"category", e.Category.String(),
		"date", e.Date)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := ScanExpense(r.db.QueryRowContext(ctx, getExpenseSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListByDate(ctx context.Context, date string) ([]core.Expense, error) {
	return r.list(ctx, listByDateSQL, date)
}

func (r *SQLiteRepository) ListByDateRange(ctx context.Context, start, end string) ([]core.Expense, error) {
	return r.list(ctx, listByDateRangeSQL, start, end)
}

func (r *SQLiteRepository) SumByDate(ctx context.Context, date string) (core.Money, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, sumByDateSQL, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses by date: %w", err)
	}
	return core.Money(total), nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := ScanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// RowScanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanExpense reads a row selected with the expense column list.
func ScanExpense(row RowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		amount   int64
		category string
	)
	if err := row.Scan(&e.ID, &e.Title, &amount, &category, &e.Notes, &e.ReceiptURL, &e.TimestampMillis, &e.Date); err != nil {
		return core.Expense{}, err
	}
	c, err := core.ParseCategory(category)
	if err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.Money(amount)
	e.Category = c
	return e, nil
}
