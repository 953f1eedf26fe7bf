package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"zoexpense/internal/app"
	"zoexpense/internal/config"
	apphttp "zoexpense/internal/http"
	"zoexpense/internal/log"
)

func main() {
	// .env is only present in local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger(log.ComponentApp)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting expenses server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"currency", cfg.Currency,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Expenses:        a.Expenses,
		Reports:         a.Reports,
		RateLimitPerMin: cfg.RateLimitPerMinute,
		Logger:          logger,
		Ready:           a.Backend.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return a.RunCacheSweeper(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
