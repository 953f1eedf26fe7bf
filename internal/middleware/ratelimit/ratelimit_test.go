package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zoexpense/internal/log"
)

func newLimiter(perMinute int) (*Limiter, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: []string{http.MethodPost}}, log.Discard())
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllow(t *testing.T) {
	rl, now := newLimiter(2)
	for i, want := range []bool{true, true, false, false} {
		if got := rl.Allow("a"); got != want {
			t.Fatalf("request %d: Allow = %v, want %v", i, got, want)
		}
	}
	if !rl.Allow("b") {
		t.Error("other client limited")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("window did not reset")
	}
}

func TestCleanup(t *testing.T) {
	rl, now := newLimiter(2)
	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.Allow("b")
	if removed := rl.cleanup(); removed != 1 {
		t.Errorf("removed %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d", rl.ActiveClients())
	}
}

func TestMiddlewareOnlyCountsConfiguredMethods(t *testing.T) {
	rl, _ := newLimiter(1)
	h := rl.Middleware(func(*http.Request) string { return "ip" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/expenses", nil))
		return rr
	}

	if rr := do(http.MethodPost); rr.Code != http.StatusOK {
		t.Fatalf("first POST = %d", rr.Code)
	}
	rr := do(http.MethodPost)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("second POST = %d %v", rr.Code, rr.Header())
	}
	for range 3 {
		if rr := do(http.MethodGet); rr.Code != http.StatusOK {
			t.Fatalf("GET limited: %d", rr.Code)
		}
	}
}
