package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"zoexpense/internal/core"
)

// Line caps keep the report on a single A4 page.
const (
	pdfMaxDaily  = 10
	pdfMaxRecent = 8
)

// PDFRenderer lays a report out on one A4 page with the core fonts. Those
// fonts only cover Latin-1, so amounts are written with the ISO code
// ("INR 350.00") instead of the currency symbol.
type PDFRenderer struct {
	MaxDaily  int
	MaxRecent int
}

func NewPDFRenderer() PDFRenderer {
	return PDFRenderer{MaxDaily: pdfMaxDaily, MaxRecent: pdfMaxRecent}
}

func (PDFRenderer) Format() string      { return "pdf" }
func (PDFRenderer) Extension() string   { return "pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }

func (p PDFRenderer) Render(w io.Writer, doc Document) error {
	r := doc.Report
	cur := pdfCurrency(doc.Currency)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Expense Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr("Period: "+r.Window.Label), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Generated: "+doc.GeneratedAt.In(doc.location()).Format(GeneratedLayout), "", 1, "L", false, 0, "")

	heading := func(text string) {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(text string) {
		pdf.SetX(28)
		pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
	}

	heading("Summary")
	line("Total Spent: " + core.Format(r.TotalAmount, cur))
	line("Total Count: " + strconv.Itoa(r.TotalCount))

	if len(r.Categories) > 0 {
		heading("Category Breakdown")
		for _, c := range r.Categories {
			line(c.Category.String() + ": " + core.Format(c.Amount, cur) + " (" + core.Percent(c.Percentage) + ")")
		}
	}

	if len(r.Daily) > 0 {
		heading("Daily Totals")
		for _, d := range r.Daily[:min(len(r.Daily), p.MaxDaily)] {
			line(d.Date + ": " + core.Format(d.Amount, cur))
		}
	}

	if len(r.Recent) > 0 {
		heading("Recent Expenses")
		for _, e := range r.Recent[:min(len(r.Recent), p.MaxRecent)] {
			amount := strings.Replace(e.Amount, doc.Currency.Symbol, cur.Symbol, 1)
			line(e.Title + " - " + e.Category.String() + " - " + amount + " - " + itemDate(e, doc.location()))
		}
	}

	return pdf.Output(w)
}

// pdfCurrency swaps the symbol for the ISO code.
func pdfCurrency(c core.Currency) core.Currency {
	if c.SymbolPosition == core.SymbolAfter {
		c.Symbol = " " + c.Code
	} else {
		c.Symbol = c.Code + " "
	}
	return c
}
