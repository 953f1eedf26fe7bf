package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"zoexpense/internal/app"
	"zoexpense/internal/config"
	"zoexpense/internal/log"
	"zoexpense/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger(log.ComponentBot)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.ValidateBot(); err != nil {
		logger.Error("Bot configuration invalid", log.FieldError, err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Starting expense bot", "username", api.Self.UserName, "backend", cfg.DataBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer a.Close()

	go a.RunCacheSweeper(ctx)

	bot := telegram.New(api, a.Expenses, a.Reports, logger)
	if err := bot.Run(ctx, api); err != nil && ctx.Err() == nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped")
}
