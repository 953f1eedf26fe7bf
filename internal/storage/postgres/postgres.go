// Package postgres is the ExpenseStore for a shared PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/lib/pq"

	"zoexpense/internal/core"
	"zoexpense/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	expenseColumns = `id, title, amount_minor, category, notes, receipt_url, timestamp_millis, date`

	upsertExpenseSQL = `INSERT INTO expenses (` + expenseColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    amount_minor = EXCLUDED.amount_minor,
    category = EXCLUDED.category,
    notes = EXCLUDED.notes,
    receipt_url = EXCLUDED.receipt_url,
    timestamp_millis = EXCLUDED.timestamp_millis,
    date = EXCLUDED.date`

	getExpenseSQL      = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	listByDateSQL      = `SELECT ` + expenseColumns + ` FROM expenses WHERE date = $1 ORDER BY timestamp_millis DESC, id`
	listByDateRangeSQL = `SELECT ` + expenseColumns + ` FROM expenses WHERE date BETWEEN $1 AND $2 ORDER BY timestamp_millis DESC, id`
	sumByDateSQL       = `SELECT COALESCE(SUM(amount_minor), 0)::BIGINT FROM expenses WHERE date = $1`
)

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.ExpenseStore = (*Repository)(nil)

// New migrates the schema at dsn and opens a connection pool.
func New(ctx context.Context, dsn string) (*Repository, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations applies the embedded schema through database/sql and lib/pq.
func RunMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Append(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, upsertExpenseSQL,
		e.ID, e.Title, int64(e.Amount), e.Category.String(), e.Notes, e.ReceiptURL, e.TimestampMillis, e.Date); err != nil {
		return fmt.Errorf("upsert expense: %w", err)
	}
	slog.DebugContext(ctx, "Expense saved to Postgres", "id", e.ID, "date", e.Date)
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := storage.ScanExpense(r.pool.QueryRow(ctx, getExpenseSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListByDate(ctx context.Context, date string) ([]core.Expense, error) {
	return r.list(ctx, listByDateSQL, date)
}

func (r *Repository) ListByDateRange(ctx context.Context, start, end string) ([]core.Expense, error) {
	return r.list(ctx, listByDateRangeSQL, start, end)
}

func (r *Repository) SumByDate(ctx context.Context, date string) (core.Money, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, sumByDateSQL, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum expenses by date: %w", err)
	}
	return core.Money(total), nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := storage.ScanExpense(rows)
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
