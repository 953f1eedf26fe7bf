package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortOrder selects how expense lists are ordered.
type SortOrder string

const (
	NewestFirst   SortOrder = "newest_first"
	OldestFirst   SortOrder = "oldest_first"
	AmountHighLow SortOrder = "amount_high_low"
	AmountLowHigh SortOrder = "amount_low_high"
	Alphabetical  SortOrder = "alphabetical"
)

var ErrInvalidSortOrder = fmt.Errorf("invalid sort order")

// ParseSortOrder accepts a SortOrder identifier, ignoring case. Empty means NewestFirst.
func ParseSortOrder(s string) (SortOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NewestFirst, nil
	}
	switch o := SortOrder(s); o {
	case NewestFirst, OldestFirst, AmountHighLow, AmountLowHigh, Alphabetical:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
}

// SortExpenses returns a sorted copy of records. Ties keep input order.
func SortExpenses(records []Expense, order SortOrder) []Expense {
	out := slices.Clone(records)
	var less func(a, b Expense) int
	switch order {
	case OldestFirst:
		less = func(a, b Expense) int {
			return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.TimestampMillis, b.TimestampMillis))
		}
	case AmountHighLow:
		less = func(a, b Expense) int { return cmp.Compare(b.Amount, a.Amount) }
	case AmountLowHigh:
		less = func(a, b Expense) int { return cmp.Compare(a.Amount, b.Amount) }
	case Alphabetical:
		less = func(a, b Expense) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	default:
		less = func(a, b Expense) int {
			return cmp.Or(cmp.Compare(b.Date, a.Date), cmp.Compare(b.TimestampMillis, a.TimestampMillis))
		}
	}
	slices.SortStableFunc(out, less)
	return out
}
