package core

import (
	"reflect"
	"testing"
)

var testWindow = Window{Start: "2025-01-01", End: "2025-01-31", Label: "January"}

func rec(id string, amount Money, c Category, date string) Expense {
	return Expense{ID: id, Title: "t-" + id, Amount: amount, Category: c, Date: date, TimestampMillis: 1}
}

func TestComputeReportBreakdown(t *testing.T) {
	records := []Expense{
		rec("1", 10000, Food, "2025-01-02"),
		rec("2", 20000, Travel, "2025-01-02"),
		rec("3", 5000, Food, "2025-01-03"),
	}
	r := ComputeReport(records, testWindow, INR)

	if r.TotalAmount != 35000 || r.TotalCount != 3 {
		t.Fatalf("totals = %d/%d", r.TotalAmount, r.TotalCount)
	}
	if r.Currency != "INR" || r.Window != testWindow {
		t.Fatalf("header = %s %+v", r.Currency, r.Window)
	}
	if len(r.Categories) != 2 {
		t.Fatalf("categories = %+v", r.Categories)
	}
	first, second := r.Categories[0], r.Categories[1]
	if first.Category != Travel || first.Amount != 20000 || first.Count != 1 {
		t.Fatalf("first = %+v", first)
	}
	if second.Category != Food || second.Amount != 15000 || second.Count != 2 {
		t.Fatalf("second = %+v", second)
	}
	if Percent(first.Percentage) != "57.1%" || Percent(second.Percentage) != "42.9%" {
		t.Fatalf("percentages = %v %v", first.Percentage, second.Percentage)
	}

	wantDaily := []DailyTotal{
		{Date: "2025-01-02", Amount: 30000, Count: 2},
		{Date: "2025-01-03", Amount: 5000, Count: 1},
	}
	if !reflect.DeepEqual(r.Daily, wantDaily) {
		t.Fatalf("daily = %+v", r.Daily)
	}
}

func TestComputeReportEmpty(t *testing.T) {
	r := ComputeReport(nil, testWindow, INR)
	if r.TotalAmount != 0 || r.TotalCount != 0 {
		t.Fatalf("totals = %d/%d", r.TotalAmount, r.TotalCount)
	}
	if r.Categories == nil || r.Daily == nil || r.Recent == nil {
		t.Fatalf("expected empty, non-nil slices")
	}
	if len(r.Categories)+len(r.Daily)+len(r.Recent) != 0 {
		t.Fatalf("expected empty report, got %+v", r)
	}
}

func TestComputeReportTiesFollowDeclarationOrder(t *testing.T) {
	records := []Expense{
		rec("1", 500, Other, "2025-01-02"),
		rec("2", 500, Staff, "2025-01-02"),
		rec("3", 500, Food, "2025-01-02"),
	}
	r := ComputeReport(records, testWindow, INR)
	var got []Category
	for _, c := range r.Categories {
		got = append(got, c.Category)
	}
	want := []Category{Staff, Food, Other}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestComputeReportZeroTotal(t *testing.T) {
	records := []Expense{rec("1", 0, Food, "2025-01-02")}
	r := ComputeReport(records, testWindow, INR)
	if r.Categories[0].Percentage != 0 {
		t.Fatalf("percentage = %v, want 0", r.Categories[0].Percentage)
	}
}

func TestComputeReportRecent(t *testing.T) {
	var records []Expense
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, rec(id, Money(100*(i+1)), Food, "2025-01-02"))
	}
	r := ComputeReport(records, testWindow, INR)
	if len(r.Recent) != RecentLimit {
		t.Fatalf("recent = %d, want %d", len(r.Recent), RecentLimit)
	}
	for i, item := range r.Recent {
		if item.ID != records[i].ID {
			t.Fatalf("recent[%d] = %s, want %s", i, item.ID, records[i].ID)
		}
	}
	if r.Recent[0].Subtitle != "Food • ₹1.00" {
		t.Fatalf("subtitle = %q", r.Recent[0].Subtitle)
	}
}

func TestComputeReportIdempotent(t *testing.T) {
	records := []Expense{
		rec("1", 1200, Utility, "2025-01-05"),
		rec("2", 800, Staff, "2025-01-04"),
	}
	a := ComputeReport(records, testWindow, USD)
	b := ComputeReport(records, testWindow, USD)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("reports differ:\n%+v\n%+v", a, b)
	}
}

func TestComputeReportSumsMatchTotal(t *testing.T) {
	records := []Expense{
		rec("1", 1200, Utility, "2025-01-05"),
		rec("2", 800, Staff, "2025-01-04"),
		rec("3", 333, Utility, "2025-01-04"),
		rec("4", -100, Other, "2025-01-06"),
	}
	r := ComputeReport(records, testWindow, INR)
	var byCat, byDay Money
	count := 0
	for _, c := range r.Categories {
		byCat += c.Amount
		count += c.Count
	}
	for _, d := range r.Daily {
		byDay += d.Amount
	}
	if byCat != r.TotalAmount || byDay != r.TotalAmount || count != r.TotalCount {
		t.Fatalf("sums %d/%d/%d vs total %d/%d", byCat, byDay, count, r.TotalAmount, r.TotalCount)
	}
}
