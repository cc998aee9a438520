// Package main is the entry point for the club ledger Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/bot"
	"gitlab.com/yelinaung/club-ledger/internal/cache"
	"gitlab.com/yelinaung/club-ledger/internal/config"
	"gitlab.com/yelinaung/club-ledger/internal/database"
	"gitlab.com/yelinaung/club-ledger/internal/gemini"
	"gitlab.com/yelinaung/club-ledger/internal/kvstore"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/report"
	"gitlab.com/yelinaung/club-ledger/internal/repository"
	"gitlab.com/yelinaung/club-ledger/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const httpTimeout = 90 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("club-ledger %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelExporter, version)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedCategories(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	kv, err := kvstore.OpenSQLite(cfg.CacheDBPath)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.CacheDBPath).Msg("Failed to open cache store")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close cache store")
		}
	}()

	paymentCache := report.NewPaymentCache(ctx, kv, cache.Options{
		FreshFor:  cfg.CacheFreshFor,
		RetainFor: cfg.CacheRetainFor,
	})

	httpClient := telemetry.HTTPClient(httpTimeout)

	var geminiClient *gemini.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, httpClient)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Gemini unavailable, category suggestions disabled")
			geminiClient = nil
		}
	}

	telegramBot, err := bot.New(cfg, bot.Deps{
		Members:       repository.NewMemberRepository(pool),
		Payments:      repository.NewPaymentRepository(pool),
		Expenses:      repository.NewExpenseRepository(pool),
		Categories:    repository.NewCategoryRepository(pool),
		Announcements: repository.NewAnnouncementRepository(pool),
		PaymentCache:  paymentCache,
		Gemini:        geminiClient,
		HTTPClient:    httpClient,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}
