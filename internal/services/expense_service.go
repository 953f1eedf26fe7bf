package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zoexpense/internal/core"
	"zoexpense/internal/log"
	"zoexpense/internal/storage"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrInvalidGrouping   = errors.New("invalid grouping")
)

// IsValidationError reports whether err was caused by bad user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmountFormat, core.ErrEmptyTitle, core.ErrTitleTooLong,
		core.ErrInvalidCategory, core.ErrInvalidDate, core.ErrInvalidPeriod,
		core.ErrInvalidSortOrder, ErrNonPositiveAmount, ErrUnknownCurrency, ErrInvalidGrouping,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Publisher announces stored records to other processes.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.Expense) error
}

// CreateExpenseInput is a record as entered by a user. Amount is the raw
// decimal text. Records carry no currency of their own, so Currency, when
// set, must name the service currency.
type CreateExpenseInput struct {
	Title    string        `json:"title"`
	Amount   string        `json:"amount"`
	Category core.Category `json:"category"`
	Notes    string        `json:"notes"`
	Date     string        `json:"date"`
	Currency string        `json:"currency"`
}

// ExpenseService records expenses and answers per-day queries.
type ExpenseService struct {
	store     storage.ExpenseStore
	publisher Publisher
	notifier  *Notifier
	currency  core.Currency
	logger    *log.Logger
	now       func() time.Time
}

// NewExpenseService wires the service. publisher may be nil when no broker
// is configured.
func NewExpenseService(store storage.ExpenseStore, publisher Publisher, notifier *Notifier, currency core.Currency, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		currency:  currency,
		logger:    logger.WithComponent(log.ComponentExpense),
		now:       time.Now,
	}
}

// Currency is the default currency for parsing and display.
func (s *ExpenseService) Currency() core.Currency { return s.currency }

// CreateExpense parses, validates and stores a new record, then announces it.
func (s *ExpenseService) CreateExpense(ctx context.Context, in CreateExpenseInput) (core.Expense, error) {
	if in.Currency != "" {
		c, ok := core.LookupCurrency(in.Currency)
		if !ok {
			return core.Expense{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, in.Currency)
		}
		if c.Code != s.currency.Code {
			return core.Expense{}, fmt.Errorf("%w: %s, expenses are recorded in %s", ErrUnknownCurrency, c.Code, s.currency.Code)
		}
	}

	amount, err := core.Parse(in.Amount, s.currency)
	if err != nil {
		return core.Expense{}, err
	}
	if amount <= 0 {
		return core.Expense{}, ErrNonPositiveAmount
	}

	e, err := core.NewExpense(in.Title, amount, in.Category, in.Notes, in.Date, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.store.Append(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.Fields(ctx, slog.LevelInfo, "Expense recorded", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(e.ID, e.Title, int64(e.Amount), e.Category.String(), e.Date))

	if s.publisher != nil {
		// the record is already stored; a broker outage must not fail the request
		if err := s.publisher.PublishExpenseRecorded(ctx, e); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish expense recorded event",
				log.FieldExpenseID, e.ID, log.FieldError, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify()
	}
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.Get(ctx, id)
}

// Today is the local date used when a query omits one.
func (s *ExpenseService) Today() string {
	return core.DateOf(s.now().Local())
}

// Total returns the sum of the records stored under date.
func (s *ExpenseService) Total(ctx context.Context, date string) (core.Money, error) {
	if !core.ValidDate(date) {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidDate, date)
	}
	total, err := s.store.SumByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("sum by date: %w", err)
	}
	return total, nil
}
