package core

import (
	"cmp"
	"slices"
)

// RecentLimit is how many input records the report projects for display.
const RecentLimit = 5

type (
	// CategoryBreakdown is one category's share of a report.
	CategoryBreakdown struct {
		Category   Category `json:"category"`
		Amount     Money    `json:"amount"`
		Count      int      `json:"count"`
		Percentage float64  `json:"percentage"`
	}

	// DailyTotal sums the records stored under one date.
	DailyTotal struct {
		Date   string `json:"date"`
		Amount Money  `json:"amount"`
		Count  int    `json:"count"`
	}

	// ExpenseItem is a display projection of a record.
	ExpenseItem struct {
		ID        string   `json:"id"`
		Title     string   `json:"title"`
		Subtitle  string   `json:"subtitle"`
		Amount    string   `json:"amount"`
		Category  Category `json:"category"`
		Timestamp int64    `json:"timestamp_millis"`
	}

	// Report is the aggregate handed to renderers. It is derived on demand
	// and never persisted.
	Report struct {
		Window      Window              `json:"window"`
		Currency    string              `json:"currency"`
		TotalAmount Money               `json:"total_amount"`
		TotalCount  int                 `json:"total_count"`
		Categories  []CategoryBreakdown `json:"categories"`
		Daily       []DailyTotal        `json:"daily"`
		Recent      []ExpenseItem       `json:"recent"`
	}
)

// ComputeReport aggregates records that the caller already restricted to
// window. The window only labels the result; records are not filtered again.
func ComputeReport(records []Expense, window Window, c Currency) Report {
	r := Report{
		Window:     window,
		Currency:   c.Code,
		TotalCount: len(records),
		Categories: make([]CategoryBreakdown, 0),
		Daily:      make([]DailyTotal, 0),
		Recent:     make([]ExpenseItem, 0, min(len(records), RecentLimit)),
	}
	for _, e := range records {
		r.TotalAmount += e.Amount
	}

	for _, g := range GroupBy(records, ByCategory) {
		amount := g.Sum()
		r.Categories = append(r.Categories, CategoryBreakdown{
			Category:   g.Key,
			Amount:     amount,
			Count:      g.Count(),
			Percentage: percentage(amount, r.TotalAmount),
		})
	}
	slices.SortStableFunc(r.Categories, func(a, b CategoryBreakdown) int {
		if a.Amount != b.Amount {
			return cmp.Compare(b.Amount, a.Amount)
		}
		return cmp.Compare(a.Category, b.Category)
	})

	for _, g := range GroupBy(records, ByDate) {
		r.Daily = append(r.Daily, DailyTotal{Date: g.Key, Amount: g.Sum(), Count: g.Count()})
	}
	slices.SortFunc(r.Daily, func(a, b DailyTotal) int {
		return cmp.Compare(a.Date, b.Date)
	})

	for _, e := range records[:min(len(records), RecentLimit)] {
		r.Recent = append(r.Recent, NewExpenseItem(e, c))
	}
	return r
}

// NewExpenseItem projects a record for list display.
func NewExpenseItem(e Expense, c Currency) ExpenseItem {
	formatted := Format(e.Amount, c)
	return ExpenseItem{
		ID:        e.ID,
		Title:     e.Title,
		Subtitle:  e.Category.String() + " • " + formatted,
		Amount:    formatted,
		Category:  e.Category,
		Timestamp: e.TimestampMillis,
	}
}

func percentage(part, total Money) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
