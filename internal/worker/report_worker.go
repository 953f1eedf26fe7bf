package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zoexpense/internal/amqp"
	"zoexpense/internal/core"
	"zoexpense/internal/export"
	"zoexpense/internal/log"
	"zoexpense/internal/services"
)

// Consumer delivers ExpenseRecorded events until ctx is done.
type Consumer interface {
	ConsumeExpenseRecorded(ctx context.Context, handler func(context.Context, *amqp.ExpenseRecordedMessage) error) error
}

// SheetExporter mirrors a rendered report somewhere outside the report dir.
type SheetExporter interface {
	Export(ctx context.Context, doc export.Document) error
}

// ReportWorker keeps the rendered reports of the configured periods up to
// date as expenses are recorded.
type ReportWorker struct {
	reports   *services.ReportService
	periods   []core.Period
	dir       string
	renderers []export.Renderer
	sheets    SheetExporter
	logger    *log.Logger
	now       func() time.Time
}

// NewReportWorker writes every built-in format into dir. sheets may be nil.
func NewReportWorker(reports *services.ReportService, periods []core.Period, dir string, sheets SheetExporter, logger *log.Logger) *ReportWorker {
	return &ReportWorker{
		reports:   reports,
		periods:   periods,
		dir:       dir,
		renderers: export.Renderers(),
		sheets:    sheets,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// Run regenerates everything once, then follows the event stream.
func (w *ReportWorker) Run(ctx context.Context, consumer Consumer) error {
	if err := w.RegenerateAll(ctx); err != nil {
		// stale files are better than no worker
		w.logger.ErrorContext(ctx, "Startup regeneration failed", log.FieldError, err)
	}
	return consumer.ConsumeExpenseRecorded(ctx, w.HandleExpenseRecorded)
}

// RunPeriodic regenerates everything every interval until ctx is done. It
// serves deployments without a broker.
func (w *ReportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := w.RegenerateAll(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Periodic regeneration failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// HandleExpenseRecorded regenerates the reports whose window contains the
// recorded expense. An error makes the broker redeliver the event.
func (w *ReportWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	w.logger.Fields(ctx, slog.LevelInfo, "Processing expense event", log.NewFields().
		WithOperation(log.OpConsume).
		WithExpense(msg.ID, "", msg.AmountMinor, msg.Category, msg.Date))

	// the event came from another process, so the cache cannot know about it
	w.reports.Invalidate()

	var errs []error
	for _, p := range w.periods {
		win := w.reports.Window(p)
		if !win.Contains(msg.Date) {
			continue
		}
		if err := w.Generate(ctx, win); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegenerateAll renders every configured period.
func (w *ReportWorker) RegenerateAll(ctx context.Context) error {
	var errs []error
	for _, p := range w.periods {
		if err := w.Generate(ctx, w.reports.Window(p)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Generate renders the report for win in every format. A format that has
// nothing to draw is skipped.
func (w *ReportWorker) Generate(ctx context.Context, win core.Window) error {
	r, err := w.reports.Report(ctx, win)
	if err != nil {
		return fmt.Errorf("report %s: %w", win.Label, err)
	}
	doc := export.NewDocument(r, w.now())

	var errs []error
	for _, renderer := range w.renderers {
		path, err := export.WriteFile(w.dir, renderer, doc)
		switch {
		case errors.Is(err, export.ErrEmptyReport):
			w.logger.DebugContext(ctx, "Nothing to render", log.FieldFormat, renderer.Format(), log.FieldWindowStart, win.Start)
		case err != nil:
			errs = append(errs, fmt.Errorf("%s %s: %w", win.Label, renderer.Format(), err))
		default:
			w.logger.Fields(ctx, slog.LevelInfo, "Report written", log.NewFields().
				WithOperation(log.OpExport).
				WithReport(win.Start, win.End, r.TotalCount).
				WithExport(renderer.Format(), path))
		}
	}

	if w.sheets != nil {
		if err := w.sheets.Export(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("%s sheets: %w", win.Label, err))
		}
	}
	return errors.Join(errs...)
}
