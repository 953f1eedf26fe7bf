// Package app wires the services shared by every binary.
package app

import (
	"context"
	"fmt"
	"time"

	"zoexpense/internal/backend"
	"zoexpense/internal/cache"
	"zoexpense/internal/config"
	"zoexpense/internal/core"
	"zoexpense/internal/log"
	"zoexpense/internal/services"
)

type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Backend  *backend.BackendResult
	Notifier *services.Notifier
	Expenses *services.ExpenseService
	Reports  *services.ReportService
	Caches   *cache.Manager
}

// New opens the backend and builds the services on top of it. Close
// releases the backend.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	currency := cfg.DefaultCurrency()
	reportCache := cache.NewLRUCache[core.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(reportCache)

	n := services.NewNotifier()
	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  res,
		Notifier: n,
		Expenses: services.NewExpenseService(res.Store, res.Publisher, n, currency, logger),
		Reports:  services.NewReportService(res.Store, reportCache, n, currency, logger),
		Caches:   caches,
	}, nil
}

// RunCacheSweeper drops expired reports until ctx is done.
func (a *App) RunCacheSweeper(ctx context.Context) error {
	a.Caches.Run(ctx, time.Minute)
	return nil
}

func (a *App) Close() error {
	if a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}
