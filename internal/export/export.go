// Package export renders computed reports for people: CSV, PDF, PNG charts
// and spreadsheets. Renderers only lay out the values of a core.Report; they
// never aggregate.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"zoexpense/internal/core"
)

// Layouts used in rendered documents.
const (
	GeneratedLayout = "02/01/2006 15:04"
	ItemDateLayout  = "02/01/2006"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrEmptyReport   = errors.New("report has nothing to render")
)

// Document is a report together with the context needed to present it.
type Document struct {
	Report      core.Report
	Currency    core.Currency
	GeneratedAt time.Time
	Location    *time.Location
}

// NewDocument resolves the report's currency and stamps the generation time.
func NewDocument(r core.Report, generatedAt time.Time) Document {
	return Document{
		Report:      r,
		Currency:    core.CurrencyOrDefault(r.Currency),
		GeneratedAt: generatedAt,
		Location:    generatedAt.Location(),
	}
}

func (d Document) location() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}

// Renderer turns a Document into one file format.
type Renderer interface {
	Format() string
	Extension() string
	ContentType() string
	Render(w io.Writer, doc Document) error
}

// Renderers returns every built-in renderer.
func Renderers() []Renderer {
	return []Renderer{CSVRenderer{}, NewPDFRenderer(), NewChartRenderer()}
}

// RendererFor looks a renderer up by format name ("csv", "pdf", "png").
func RendererFor(format string) (Renderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, r := range Renderers() {
		if r.Format() == format {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// FileName builds "expense-report-<label>-<yyyyMMdd-HHmmss>.<ext>".
func FileName(label, ext string, at time.Time) string {
	return slug.Make("expense report "+label) + "-" + at.Format("20060102-150405") + "." + strings.TrimPrefix(ext, ".")
}

// WriteFile renders doc into dir and returns the file path. The file is
// written under a temporary name and renamed, so readers never see a
// partial report.
func WriteFile(dir string, r Renderer, doc Document) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render %s: %w", r.Format(), err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(doc.Report.Window.Label, r.Extension(), doc.GeneratedAt))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename report: %w", err)
	}
	return path, nil
}

// Table lays the document out as sectioned rows. Empty rows separate
// sections; empty sections are omitted. CSV and spreadsheet exports share it.
func Table(doc Document) [][]string {
	r, cur := doc.Report, doc.Currency
	rows := [][]string{
		{"Expense Report"},
		{"Period", r.Window.Label},
		{"Generated", doc.GeneratedAt.In(doc.location()).Format(GeneratedLayout)},
		{},
		{"Summary"},
		{"Total Spent", core.Format(r.TotalAmount, cur)},
		{"Total Count", strconv.Itoa(r.TotalCount)},
	}

	if len(r.Categories) > 0 {
		rows = append(rows, []string{}, []string{"Category Breakdown"}, []string{"Category", "Amount", "Percentage"})
		for _, c := range r.Categories {
			rows = append(rows, []string{c.Category.String(), core.Format(c.Amount, cur), core.Percent(c.Percentage)})
		}
	}

	if len(r.Daily) > 0 {
		rows = append(rows, []string{}, []string{"Daily Totals"}, []string{"Date", "Amount"})
		for _, d := range r.Daily {
			rows = append(rows, []string{d.Date, core.Format(d.Amount, cur)})
		}
	}

	if len(r.Recent) > 0 {
		rows = append(rows, []string{}, []string{"Recent Expenses"}, []string{"Title", "Category", "Amount", "Date"})
		for _, e := range r.Recent {
			rows = append(rows, []string{e.Title, e.Category.String(), e.Amount, itemDate(e, doc.location())})
		}
	}
	return rows
}

func itemDate(e core.ExpenseItem, loc *time.Location) string {
	return time.UnixMilli(e.Timestamp).In(loc).Format(ItemDateLayout)
}
