package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"zoexpense/internal/cache"
	"zoexpense/internal/core"
	"zoexpense/internal/log"
	"zoexpense/internal/services"
	"zoexpense/internal/storage/memory"
)

func seed(id string, amount core.Money, c core.Category, date string) core.Expense {
	return core.Expense{ID: id, Title: "t-" + id, Amount: amount, Category: c, Date: date, TimestampMillis: 1735800000000}
}

func newTestServer(t *testing.T, opts Options, records ...core.Expense) *Server {
	t.Helper()
	store := memory.New(records...)
	n := services.NewNotifier()
	opts.Expenses = services.NewExpenseService(store, nil, n, core.INR, log.Discard())
	opts.Reports = services.NewReportService(store, cache.NewLRUCache[core.Report](10, time.Minute), n, core.INR, log.Discard())
	opts.Logger = log.Discard()
	return NewServer(opts)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, s, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	down := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	if rr := do(t, down, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rr.Code)
	}
}

func TestCreateExpense(t *testing.T) {
	s := newTestServer(t, Options{})

	rr := do(t, s, http.MethodPost, "/api/expenses", `{"title":"Lunch","amount":"1,234.50","category":"food","date":"2025-01-02"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	got := decode[map[string]any](t, rr)
	if got["amount"] != float64(123450) || got["category"] != "Food" || got["formatted"] != "₹1,234.50" || got["date"] != "2025-01-02" {
		t.Errorf("response = %v", got)
	}
	id, _ := got["id"].(string)
	if id == "" {
		t.Fatal("missing id")
	}

	rr = do(t, s, http.MethodGet, "/api/expenses/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if decode[map[string]any](t, rr)["title"] != "Lunch" {
		t.Errorf("get body = %s", rr.Body)
	}

	rr = do(t, s, http.MethodPost, "/api/expenses", `{"title":"Bus","amount":12.5,"category":"Travel","date":"2025-01-02"}`)
	if rr.Code != http.StatusCreated || decode[map[string]any](t, rr)["amount"] != float64(1250) {
		t.Errorf("numeric amount: %d %s", rr.Code, rr.Body)
	}
	for amount, want := range map[string]float64{"1e3": 100000, "2.5E2": 25000} {
		body := `{"title":"Rent","amount":` + amount + `,"category":"Utility","date":"2025-01-02"}`
		rr = do(t, s, http.MethodPost, "/api/expenses", body)
		if rr.Code != http.StatusCreated || decode[map[string]any](t, rr)["amount"] != want {
			t.Errorf("amount %s: %d %s", amount, rr.Code, rr.Body)
		}
	}
}

func TestCreateExpenseRejects(t *testing.T) {
	s := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"unknown category", `{"title":"x","amount":"1","category":"Pets"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"title":"x","amount":"abc","category":"Food"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"title":"x","amount":"0","category":"Food"}`, http.StatusUnprocessableEntity},
		{"exponent below a paisa", `{"title":"x","amount":1e-3,"category":"Food"}`, http.StatusUnprocessableEntity},
		{"empty title", `{"title":"  ","amount":"5","category":"Food"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"title":"x","amount":"5","category":"Food","date":"02/01/2025"}`, http.StatusUnprocessableEntity},
		{"unknown currency", `{"title":"x","amount":"5","category":"Food","currency":"XXX"}`, http.StatusUnprocessableEntity},
		{"foreign currency", `{"title":"x","amount":"1000","category":"Food","currency":"JPY"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, http.MethodPost, "/api/expenses", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body)
			}
		})
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	s := newTestServer(t, Options{})
	if rr := do(t, s, http.MethodGet, "/api/expenses/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestDaySummaryAndTotal(t *testing.T) {
	s := newTestServer(t, Options{},
		seed("1", 10000, core.Food, "2025-01-02"),
		seed("2", 25000, core.Travel, "2025-01-02"),
		seed("3", 5000, core.Food, "2025-01-02"),
		seed("4", 99900, core.Food, "2025-01-03"),
	)

	rr := do(t, s, http.MethodGet, "/api/expenses?date=2025-01-02&group=category&sort=amount_high_low", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	sum := decode[services.DaySummary](t, rr)
	if sum.Total != 40000 || sum.Count != 3 || len(sum.Groups) != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Groups[0].Key != "Travel" || sum.Groups[1].Key != "Food" || sum.Groups[1].Total != 15000 {
		t.Errorf("groups = %+v", sum.Groups)
	}

	rr = do(t, s, http.MethodGet, "/api/expenses/total?date=2025-01-03", "")
	tot := decode[totalResponse](t, rr)
	if tot.Total != 99900 || tot.Formatted != "₹999.00" {
		t.Errorf("total = %+v", tot)
	}

	for _, target := range []string{"/api/expenses?date=2025-01-02&group=weekday", "/api/expenses?sort=random", "/api/expenses/total?date=yesterday"} {
		if rr := do(t, s, http.MethodGet, target, ""); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s status = %d", target, rr.Code)
		}
	}
}

func TestReport(t *testing.T) {
	s := newTestServer(t, Options{},
		seed("1", 10000, core.Food, "2025-01-02"),
		seed("2", 20000, core.Travel, "2025-01-05"),
		seed("3", 5000, core.Food, "2025-02-01"),
	)

	rr := do(t, s, http.MethodGet, "/api/reports?start=2025-01-01&end=2025-01-31", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	r := decode[core.Report](t, rr)
	if r.TotalAmount != 30000 || r.TotalCount != 2 || r.Window.Label != "2025-01-01 to 2025-01-31" {
		t.Errorf("report = %+v", r)
	}
	if len(r.Categories) != 2 || r.Categories[0].Category != core.Travel {
		t.Errorf("categories = %+v", r.Categories)
	}

	for _, target := range []string{"/api/reports?period=fortnight", "/api/reports?start=2025-02-01&end=2025-01-01", "/api/reports?start=2025-01-01"} {
		if rr := do(t, s, http.MethodGet, target, ""); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s status = %d", target, rr.Code)
		}
	}

	if rr := do(t, s, http.MethodGet, "/api/reports?period=last_7_days", ""); rr.Code != http.StatusOK {
		t.Errorf("period status = %d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, Options{}, seed("1", 10000, core.Food, "2025-01-02"))
	s.now = func() time.Time { return time.Date(2025, 1, 3, 9, 30, 0, 0, time.UTC) }

	rr := do(t, s, http.MethodGet, "/api/reports/export?format=csv&start=2025-01-01&end=2025-01-31&label=January", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="expense-report-january-20250103-093000.csv"` {
		t.Errorf("disposition = %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "Expense Report\nPeriod,January\n") {
		t.Errorf("body = %q", rr.Body.String())
	}

	rr = do(t, s, http.MethodGet, "/api/reports/export?format=pdf&start=2025-01-01&end=2025-01-31", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Errorf("pdf export: %d", rr.Code)
	}

	for _, target := range []string{
		"/api/reports/export?format=xlsx",
		"/api/reports/export?format=png&start=2024-01-01&end=2024-01-31",
	} {
		if rr := do(t, s, http.MethodGet, target, ""); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s status = %d", target, rr.Code)
		}
	}
}

func TestAmounts(t *testing.T) {
	s := newTestServer(t, Options{})

	rr := do(t, s, http.MethodPost, "/api/amounts/parse", `{"text":"₹12,345.5"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("parse status = %d body = %s", rr.Code, rr.Body)
	}
	got := decode[amountResponse](t, rr)
	if got.Amount != 1234550 || got.Formatted != "₹12,345.50" || got.Compact != "12.3K" || got.Currency != "INR" {
		t.Errorf("parse = %+v", got)
	}

	rr = do(t, s, http.MethodPost, "/api/amounts/parse", `{"text":"1500","currency":"jpy"}`)
	if got := decode[amountResponse](t, rr); got.Amount != 1500 || got.Formatted != "¥1,500" {
		t.Errorf("jpy parse = %+v", got)
	}

	for _, body := range []string{`{"text":"abc"}`, `{"text":"1","currency":"XXX"}`} {
		if rr := do(t, s, http.MethodPost, "/api/amounts/parse", body); rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s status = %d", body, rr.Code)
		}
	}

	rr = do(t, s, http.MethodGet, "/api/amounts/format?amount=-150000&currency=USD", "")
	if got := decode[amountResponse](t, rr); got.Formatted != "-$1,500.00" {
		t.Errorf("format = %+v", got)
	}
	if rr := do(t, s, http.MethodGet, "/api/amounts/format?amount=1.5", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("non-integer status = %d", rr.Code)
	}
}

func TestCurrenciesAndPeriods(t *testing.T) {
	s := newTestServer(t, Options{})

	got := decode[currenciesResponse](t, do(t, s, http.MethodGet, "/api/currencies", ""))
	if got.Default != "INR" || len(got.Currencies) != len(core.Currencies()) || len(got.Popular) != len(core.PopularCurrencies()) {
		t.Errorf("currencies = %+v", got)
	}
	if !slices.Contains(got.Currencies, core.SEK) {
		t.Errorf("SEK did not survive decoding: %+v", got.Currencies)
	}

	periods := decode[[]periodResponse](t, do(t, s, http.MethodGet, "/api/periods", ""))
	if len(periods) != 4 || periods[0].ID != core.Last7Days || periods[0].Label != "7 Days" {
		t.Errorf("periods = %+v", periods)
	}
}

func TestMiddlewareStack(t *testing.T) {
	s := newTestServer(t, Options{RateLimitPerMin: 2})

	rr := do(t, s, http.MethodGet, "/api/currencies", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("headers = %v", rr.Header())
	}

	body := `{"text":"1"}`
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		if rr := do(t, s, http.MethodPost, "/api/amounts/parse", body); rr.Code != want {
			t.Fatalf("POST %d status = %d, want %d", i, rr.Code, want)
		}
	}
	if rr := do(t, s, http.MethodGet, "/api/currencies", ""); rr.Code != http.StatusOK {
		t.Errorf("GET limited: %d", rr.Code)
	}

	if rr := do(t, s, http.MethodGet, "/.git/config", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("probe status = %d", rr.Code)
	}
}
