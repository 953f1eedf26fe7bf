package services

import (
	"context"
	"fmt"
	"strings"

	"zoexpense/internal/core"
)

// Grouping selects how a day listing is partitioned.
type Grouping string

const (
	GroupByCategory Grouping = "category"
	GroupByDate     Grouping = "date"
	GroupByAmount   Grouping = "amount"
)

// ParseGrouping accepts a Grouping name; empty means GroupByCategory.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupByCategory, nil
	case GroupByCategory, GroupByDate, GroupByAmount:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGrouping, s)
}

type (
	SummaryGroup struct {
		Key       string             `json:"key"`
		Total     core.Money         `json:"total"`
		Formatted string             `json:"formatted"`
		Count     int                `json:"count"`
		Items     []core.ExpenseItem `json:"items"`
	}

	// DaySummary is the listing for one stored date.
	DaySummary struct {
		Date      string         `json:"date"`
		Currency  string         `json:"currency"`
		Total     core.Money     `json:"total"`
		Formatted string         `json:"formatted"`
		Count     int            `json:"count"`
		Groups    []SummaryGroup `json:"groups"`
	}
)

// DaySummary lists the records of date sorted by order and partitioned by
// grouping. Groups appear in the order their first record sorts.
func (s *ExpenseService) DaySummary(ctx context.Context, date string, grouping Grouping, order core.SortOrder) (DaySummary, error) {
	total, err := s.Total(ctx, date)
	if err != nil {
		return DaySummary{}, err
	}
	records, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return DaySummary{}, fmt.Errorf("list by date: %w", err)
	}
	records = core.SortExpenses(records, order)

	cur := s.currency
	var groups []SummaryGroup
	switch grouping {
	case GroupByDate:
		groups = summarize(core.GroupBy(records, core.ByDate), func(k string) string { return k }, cur)
	case GroupByAmount:
		groups = summarize(core.GroupBy(records, core.ByAmountBucket(cur)), core.AmountBucket.String, cur)
	default:
		groups = summarize(core.GroupBy(records, core.ByCategory), core.Category.String, cur)
	}

	return DaySummary{
		Date:      date,
		Currency:  cur.Code,
		Total:     total,
		Formatted: core.Format(total, cur),
		Count:     len(records),
		Groups:    groups,
	}, nil
}

func summarize[K comparable](groups []core.Group[K], label func(K) string, cur core.Currency) []SummaryGroup {
	out := make([]SummaryGroup, 0, len(groups))
	for _, g := range groups {
		items := make([]core.ExpenseItem, 0, len(g.Records))
		for _, e := range g.Records {
			items = append(items, core.NewExpenseItem(e, cur))
		}
		sum := g.Sum()
		out = append(out, SummaryGroup{
			Key:       label(g.Key),
			Total:     sum,
			Formatted: core.Format(sum, cur),
			Count:     g.Count(),
			Items:     items,
		})
	}
	return out
}
