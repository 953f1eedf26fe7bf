package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"zoexpense/internal/core"
)

var generated = time.Date(2025, time.January, 3, 14, 5, 9, 0, time.UTC)

func testDoc() Document {
	window := core.Window{Start: "2025-01-01", End: "2025-01-07", Label: "7 Days"}
	records := []core.Expense{
		{ID: "1", Title: "Lunch", Amount: 10000, Category: core.Food, Date: "2025-01-02", TimestampMillis: generated.UnixMilli()},
		{ID: "2", Title: "Train", Amount: 20000, Category: core.Travel, Date: "2025-01-02", TimestampMillis: generated.UnixMilli()},
		{ID: "3", Title: "Snack", Amount: 5000, Category: core.Food, Date: "2025-01-03", TimestampMillis: generated.UnixMilli()},
	}
	return NewDocument(core.ComputeReport(records, window, core.INR), generated)
}

func emptyDoc() Document {
	window := core.Window{Start: "2025-01-01", End: "2025-01-07", Label: "7 Days"}
	return NewDocument(core.ComputeReport(nil, window, core.INR), generated)
}

func TestTable(t *testing.T) {
	want := [][]string{
		{"Expense Report"},
		{"Period", "7 Days"},
		{"Generated", "03/01/2025 14:05"},
		{},
		{"Summary"},
		{"Total Spent", "₹350.00"},
		{"Total Count", "3"},
		{},
		{"Category Breakdown"},
		{"Category", "Amount", "Percentage"},
		{"Travel", "₹200.00", "57.1%"},
		{"Food", "₹150.00", "42.9%"},
		{},
		{"Daily Totals"},
		{"Date", "Amount"},
		{"2025-01-02", "₹300.00"},
		{"2025-01-03", "₹50.00"},
		{},
		{"Recent Expenses"},
		{"Title", "Category", "Amount", "Date"},
		{"Lunch", "Food", "₹100.00", "03/01/2025"},
		{"Train", "Travel", "₹200.00", "03/01/2025"},
		{"Snack", "Food", "₹50.00", "03/01/2025"},
	}
	got := Table(testDoc())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Table mismatch\ngot:  %q\nwant: %q", got, want)
	}
}

func TestTableEmptyReportOmitsSections(t *testing.T) {
	got := Table(emptyDoc())
	if len(got) != 7 {
		t.Fatalf("got %d rows, want 7: %q", len(got), got)
	}
	if got[5][1] != "₹0.00" || got[6][1] != "0" {
		t.Errorf("summary = %q %q", got[5], got[6])
	}
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVRenderer{}).Render(&buf, testDoc()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Expense Report\n",
		"Period,7 Days\n",
		"Total Spent,₹350.00\n",
		"Category,Amount,Percentage\n",
		"Travel,₹200.00,57.1%\n",
		"2025-01-03,₹50.00\n",
		"Lunch,Food,₹100.00,03/01/2025\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("CSV missing %q in:\n%s", want, out)
		}
	}
}

func TestCSVQuotesCommas(t *testing.T) {
	doc := testDoc()
	doc.Report.Recent[0].Title = "Lunch, dinner"
	var buf bytes.Buffer
	if err := (CSVRenderer{}).Render(&buf, doc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), `"Lunch, dinner",Food`) {
		t.Errorf("title not quoted:\n%s", buf.String())
	}
}

func TestPDFRenderer(t *testing.T) {
	for name, doc := range map[string]Document{"full": testDoc(), "empty": emptyDoc()} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewPDFRenderer().Render(&buf, doc); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
				t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(buf.Len(), 16)])
			}
		})
	}
}

func TestPDFCurrency(t *testing.T) {
	if got := core.Format(35000, pdfCurrency(core.INR)); got != "INR 350.00" {
		t.Errorf("before = %q", got)
	}
	if got := core.Format(35000, pdfCurrency(core.SEK)); got != "350.00 SEK" {
		t.Errorf("after = %q", got)
	}
}

func TestChartRenderer(t *testing.T) {
	pngMagic := []byte("\x89PNG")
	for _, r := range []ChartRenderer{NewChartRenderer(), NewDailyChartRenderer()} {
		t.Run(r.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, testDoc()); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
				t.Errorf("output is not a PNG")
			}

			err := r.Render(&bytes.Buffer{}, emptyDoc())
			if !errors.Is(err, ErrEmptyReport) {
				t.Errorf("empty report err = %v, want ErrEmptyReport", err)
			}
		})
	}
}

func TestRendererFor(t *testing.T) {
	for _, format := range []string{"csv", "PDF", " png "} {
		if _, err := RendererFor(format); err != nil {
			t.Errorf("RendererFor(%q): %v", format, err)
		}
	}
	if _, err := RendererFor("xlsx"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("xlsx err = %v", err)
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"7 Days":                   "expense-report-7-days-20250103-140509.csv",
		"2025-01-01 to 2025-01-31": "expense-report-2025-01-01-to-2025-01-31-20250103-140509.csv",
	}
	for label, want := range cases {
		if got := FileName(label, ".csv", generated); got != want {
			t.Errorf("FileName(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := WriteFile(dir, CSVRenderer{}, testDoc())
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "expense-report-7-days-20250103-140509.csv" {
		t.Errorf("path = %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "Expense Report") {
		t.Errorf("content = %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestWriteFileRenderErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	if _, err := WriteFile(dir, NewChartRenderer(), emptyDoc()); !errors.Is(err, ErrEmptyReport) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dir has %d entries", len(entries))
	}
}
