// Package http serves the JSON API over the expense and report services.
package http

import (
	"context"
	"net/http"
	"time"

	"zoexpense/internal/log"
	"zoexpense/internal/middleware/ratelimit"
	"zoexpense/internal/middleware/security"
	"zoexpense/internal/middleware/trace"
	"zoexpense/internal/services"
)

// Options wires a Server. Ready, when set, backs /readyz.
type Options struct {
	Addr            string
	Expenses        *services.ExpenseService
	Reports         *services.ReportService
	RateLimitPerMin int
	Logger          *log.Logger
	Ready           func(context.Context) error
}

type Server struct {
	http.Server
	expenses *services.ExpenseService
	reports  *services.ReportService
	limiter  *ratelimit.Limiter
	ready    func(context.Context) error
	logger   *log.Logger
	now      func() time.Time
}

// NewServer registers the routes behind the tracing, probe detection,
// security header and rate limit middleware.
func NewServer(opts Options) *Server {
	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(logger)
	s := &Server{
		expenses: opts.Expenses,
		reports:  opts.Reports,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
			Methods:           []string{http.MethodPost},
		}, logger),
		ready:  opts.Ready,
		logger: logger,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleDaySummary)
	mux.HandleFunc("GET /api/expenses/total", s.handleDayTotal)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)

	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/reports/export", s.handleExport)
	mux.HandleFunc("GET /api/periods", s.handlePeriods)

	mux.HandleFunc("POST /api/amounts/parse", s.handleParseAmount)
	mux.HandleFunc("GET /api/amounts/format", s.handleFormatAmount)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	cleanupCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.limiter.Run(cleanupCtx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Shutdown(shutdownCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
