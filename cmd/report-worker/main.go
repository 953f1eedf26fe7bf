package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"zoexpense/internal/app"
	"zoexpense/internal/config"
	"zoexpense/internal/export/sheets"
	"zoexpense/internal/log"
	"zoexpense/internal/worker"
)

// pollInterval drives regeneration when no broker is configured.
const pollInterval = 15 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger(log.ComponentWorker)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting report worker",
		"backend", cfg.DataBackend,
		"report_dir", cfg.ReportDir,
		"periods", cfg.ReportPeriods,
		"sheets_enabled", cfg.SheetsEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer a.Close()

	var sheetExporter worker.SheetExporter
	if cfg.SheetsEnabled() {
		exp, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export", log.FieldError, err)
			os.Exit(1)
		}
		sheetExporter = exp
	}

	w := worker.NewReportWorker(a.Reports, cfg.Periods(), cfg.ReportDir, sheetExporter, logger)

	if a.Backend.Events == nil {
		logger.Warn("No message broker configured, regenerating reports on a timer", "interval", pollInterval)
		err = w.RunPeriodic(ctx, pollInterval)
	} else {
		err = w.Run(ctx, a.Backend.Events)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("Report worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report worker stopped")
}
