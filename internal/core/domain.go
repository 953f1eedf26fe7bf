package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxTitleLength = 200

// DateLayout is the yyyy-MM-dd layout used for Expense.Date and report windows.
const DateLayout = "2006-01-02"

// Category is a closed set of expense categories. Declaration order is the
// stable ordering used for ties in reports.
type Category int

const (
	Staff Category = iota + 1
	Travel
	Food
	Utility
	Other
)

var categoryNames = map[Category]string{
	Staff:   "Staff",
	Travel:  "Travel",
	Food:    "Food",
	Utility: "Utility",
	Other:   "Other",
}

type (
	Expense struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		Amount          Money    `json:"amount"` // minor units
		Category        Category `json:"category"`
		Notes           string   `json:"notes,omitempty"`
		ReceiptURL      string   `json:"receipt_url,omitempty"`
		TimestampMillis int64    `json:"timestamp_millis"`
		Date            string   `json:"date"` // yyyy-MM-dd, grouping key
	}
)

var (
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
)

// Categories returns all categories in declaration order.
func Categories() []Category {
	return []Category{Staff, Travel, Food, Utility, Other}
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory matches a category name, ignoring case.
func ParseCategory(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for _, c := range Categories() {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DateOf formats t as a yyyy-MM-dd date in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a real calendar date in yyyy-MM-dd form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NewExpense builds a record with a fresh id. An empty date is derived from
// now in the local time zone; a non-empty one is kept as given, which allows
// backdated entries.
func NewExpense(title string, amount Money, category Category, notes, date string, now time.Time) (Expense, error) {
	if date == "" {
		date = DateOf(now.Local())
	}
	e := Expense{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(title),
		Amount:          amount,
		Category:        category,
		Notes:           strings.TrimSpace(notes),
		TimestampMillis: now.UnixMilli(),
		Date:            date,
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// AmountInPaise is the old name of Amount.
//
// Deprecated: use Amount.
func (e Expense) AmountInPaise() Money {
	return e.Amount
}

// Time returns the creation timestamp.
func (e Expense) Time() time.Time {
	return time.UnixMilli(e.TimestampMillis)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(e.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if !ValidDate(e.Date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, e.Date)
	}
	return nil
}
