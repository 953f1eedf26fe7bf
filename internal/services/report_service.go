package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"zoexpense/internal/cache"
	"zoexpense/internal/core"
	"zoexpense/internal/log"
	"zoexpense/internal/storage"
)

// ReportService derives reports from the store and caches them per window.
// Any change signalled through the notifier drops the whole cache.
type ReportService struct {
	store    storage.ExpenseStore
	cache    cache.Cache[core.Report]
	group    singleflight.Group
	mu       sync.Mutex // guards gen and cache writes
	gen      uint64
	notifier *Notifier
	currency core.Currency
	logger   *log.Logger
	now      func() time.Time
}

func NewReportService(store storage.ExpenseStore, c cache.Cache[core.Report], notifier *Notifier, currency core.Currency, logger *log.Logger) *ReportService {
	s := &ReportService{
		store:    store,
		cache:    c,
		notifier: notifier,
		currency: currency,
		logger:   logger.WithComponent(log.ComponentReport),
		now:      time.Now,
	}
	if notifier != nil {
		notifier.OnChange(s.Invalidate)
	}
	return s
}

// Invalidate drops cached reports. Computations already in flight will not
// repopulate the cache.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Purge()
}

func (s *ReportService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// cacheIfCurrent caches r unless an invalidation happened since gen was read.
func (s *ReportService) cacheIfCurrent(key string, r core.Report, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cache.Set(key, r)
	}
}

// Window resolves a period against the service clock.
func (s *ReportService) Window(p core.Period) core.Window {
	return p.Window(s.now())
}

// Report returns the report for w. Concurrent requests for the same window
// share one computation.
func (s *ReportService) Report(ctx context.Context, w core.Window) (core.Report, error) {
	key := w.Key() + "|" + w.Label
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation()
		records, err := s.store.ListByDateRange(ctx, w.Start, w.End)
		if err != nil {
			return core.Report{}, fmt.Errorf("list by date range: %w", err)
		}
		r := core.ComputeReport(records, w, s.currency)
		s.cacheIfCurrent(key, r, gen)
		s.logger.Fields(ctx, slog.LevelDebug, "Report computed", log.NewFields().
			WithOperation(log.OpAggregate).
			WithReport(w.Start, w.End, len(records)))
		return r, nil
	})
	if err != nil {
		return core.Report{}, err
	}
	return v.(core.Report), nil
}

// ReportForPeriod is Report for a predefined period ending today.
func (s *ReportService) ReportForPeriod(ctx context.Context, p core.Period) (core.Report, error) {
	return s.Report(ctx, s.Window(p))
}

// Watch emits the report for w now and again after every change. The channel
// closes when ctx is done. A consumer that falls behind only ever sees the
// latest report.
func (s *ReportService) Watch(ctx context.Context, w core.Window) <-chan core.Report {
	out := make(chan core.Report, 1)
	var (
		changes <-chan struct{}
		release = func() {}
	)
	if s.notifier != nil {
		changes, release = s.notifier.Subscribe()
	}

	go func() {
		defer close(out)
		defer release()

		emit := func() bool {
			r, err := s.Report(ctx, w)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.ErrorContext(ctx, "Watch failed to compute report", log.FieldError, err)
				}
				return ctx.Err() == nil
			}
			// replace an unread report instead of blocking
			select {
			case <-out:
			default:
			}
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				if !emit() {
					return
				}
			}
		}
	}()
	return out
}
