package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"zoexpense/internal/core"
	"zoexpense/internal/export"
	"zoexpense/internal/log"
	"zoexpense/internal/services"
)

type createExpenseRequest struct {
	Title    string   `json:"title"`
	Amount   flexText `json:"amount"`
	Category string   `json:"category"`
	Notes    string   `json:"notes"`
	Date     string   `json:"date"`
	Currency string   `json:"currency"`
}

type expenseResponse struct {
	core.Expense
	Formatted string `json:"formatted"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	e, err := s.expenses.CreateExpense(r.Context(), services.CreateExpenseInput{
		Title:    sanitizeInput(req.Title),
		Amount:   sanitizeInput(string(req.Amount)),
		Category: category,
		Notes:    sanitizeInput(req.Notes),
		Date:     strings.TrimSpace(req.Date),
		Currency: strings.TrimSpace(req.Currency),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.expenseResponse(e))
}

// expenseResponse formats in the service currency, the only one records
// are stored in.
func (s *Server) expenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{Expense: e, Formatted: core.Format(e.Amount, s.expenses.Currency())}
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.expenseResponse(e))
}

// dateParam returns the date query parameter, defaulting to today.
func (s *Server) dateParam(r *http.Request) string {
	if d := strings.TrimSpace(r.URL.Query().Get("date")); d != "" {
		return d
	}
	return s.expenses.Today()
}

func (s *Server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grouping, err := services.ParseGrouping(q.Get("group"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	order, err := core.ParseSortOrder(q.Get("sort"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	summary, err := s.expenses.DaySummary(r.Context(), s.dateParam(r), grouping, order)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type totalResponse struct {
	Date      string     `json:"date"`
	Total     core.Money `json:"total"`
	Formatted string     `json:"formatted"`
	Compact   string     `json:"compact"`
}

func (s *Server) handleDayTotal(w http.ResponseWriter, r *http.Request) {
	date := s.dateParam(r)
	total, err := s.expenses.Total(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	cur := s.expenses.Currency()
	writeJSON(w, http.StatusOK, totalResponse{
		Date:      date,
		Total:     total,
		Formatted: core.Format(total, cur),
		Compact:   core.FormatCompact(total, cur),
	})
}

// window resolves ?start=&end=[&label=] or ?period=, defaulting to the last
// 30 days.
func (s *Server) window(r *http.Request) (core.Window, error) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start != "" || end != "" {
		return core.NewWindow(start, end, sanitizeInput(q.Get("label")))
	}
	period := core.Last30Days
	if v := q.Get("period"); v != "" {
		p, err := core.ParsePeriod(v)
		if err != nil {
			return core.Window{}, err
		}
		period = p
	}
	return s.reports.Window(period), nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	win, err := s.window(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	report, err := s.reports.Report(r.Context(), win)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	win, err := s.window(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	report, err := s.reports.Report(r.Context(), win)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	doc := export.NewDocument(report, s.now())
	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		if errors.Is(err, export.ErrEmptyReport) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeServiceError(w, r, fmt.Errorf("render %s: %w", renderer.Format(), err))
		return
	}

	name := export.FileName(win.Label, renderer.Extension(), doc.GeneratedAt)
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	n, _ := buf.WriteTo(w)

	log.FromContext(r.Context()).WithComponent(log.ComponentExport).Fields(r.Context(), slog.LevelInfo, "Report downloaded",
		log.NewFields().
			WithOperation(log.OpExport).
			WithReport(win.Start, win.End, report.TotalCount).
			WithExport(renderer.Format(), name).
			WithBytes(n))
}

type periodResponse struct {
	ID     core.Period `json:"id"`
	Label  string      `json:"label"`
	Window core.Window `json:"window"`
}

func (s *Server) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	out := make([]periodResponse, 0, len(core.Periods()))
	for _, p := range core.Periods() {
		out = append(out, periodResponse{ID: p, Label: p.Label(), Window: s.reports.Window(p)})
	}
	writeJSON(w, http.StatusOK, out)
}

type parseAmountRequest struct {
	Text     string `json:"text"`
	Currency string `json:"currency"`
}

type amountResponse struct {
	Amount    core.Money `json:"amount"`
	Currency  string     `json:"currency"`
	Formatted string     `json:"formatted"`
	Compact   string     `json:"compact"`
}

// currencyParam resolves a currency code, defaulting to the service currency.
func (s *Server) currencyParam(code string) (core.Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return s.expenses.Currency(), nil
	}
	c, ok := core.LookupCurrency(code)
	if !ok {
		return core.Currency{}, fmt.Errorf("%w: %q", services.ErrUnknownCurrency, code)
	}
	return c, nil
}

func (s *Server) handleParseAmount(w http.ResponseWriter, r *http.Request) {
	var req parseAmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cur, err := s.currencyParam(req.Currency)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	amount, err := core.Parse(req.Text, cur)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{
		Amount:    amount,
		Currency:  cur.Code,
		Formatted: core.Format(amount, cur),
		Compact:   core.FormatCompact(amount, cur),
	})
}

func (s *Server) handleFormatAmount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cur, err := s.currencyParam(q.Get("currency"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	minor, err := strconv.ParseInt(strings.TrimSpace(q.Get("amount")), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "amount must be an integer number of minor units")
		return
	}
	amount := core.Money(minor)
	writeJSON(w, http.StatusOK, amountResponse{
		Amount:    amount,
		Currency:  cur.Code,
		Formatted: core.Format(amount, cur),
		Compact:   core.FormatCompact(amount, cur),
	})
}

type currenciesResponse struct {
	Default    string          `json:"default"`
	Currencies []core.Currency `json:"currencies"`
	Popular    []core.Currency `json:"popular"`
}

func (s *Server) handleCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, currenciesResponse{
		Default:    s.expenses.Currency().Code,
		Currencies: core.Currencies(),
		Popular:    core.PopularCurrencies(),
	})
}
