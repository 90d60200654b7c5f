package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/kvashee/bankfeed/internal/api"
	"github.com/kvashee/bankfeed/internal/config"
	"github.com/kvashee/bankfeed/internal/database"
	"github.com/kvashee/bankfeed/internal/extract"
	"github.com/kvashee/bankfeed/internal/ingest"
	"github.com/kvashee/bankfeed/internal/ledger"
	"github.com/kvashee/bankfeed/internal/mailbox"
	"github.com/kvashee/bankfeed/internal/notify"
	"github.com/kvashee/bankfeed/internal/scheduler"
	"github.com/kvashee/bankfeed/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting bank notification ingestion daemon")

	// Connect to database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	// Credential vault
	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		logger.Error("failed to initialize credential vault", "error", err)
		os.Exit(1)
	}

	// Extraction chain: bank templates first, model fallback if configured
	extractors := []extract.Extractor{
		extract.NewRulesExtractor(extract.DefaultRuleSets()),
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := extract.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
		if err != nil {
			logger.Error("failed to create gemini extractor", "error", err)
			os.Exit(1)
		}
		extractors = append(extractors, gemini)
		logger.Info("gemini fallback extractor enabled", "model", cfg.GeminiModel)
	}
	engine := extract.NewEngine(logger, extractors...)

	// Ledger client
	ledgerClient := ledger.NewClient(ledger.Config{
		BaseURL: cfg.LedgerURL,
		Token:   cfg.LedgerToken,
	})

	// Review notifier (optional)
	var notifier ingest.Notifier
	if cfg.ReviewEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.ReviewBotToken, cfg.ReviewChatID, logger)
		if err != nil {
			logger.Error("failed to create review notifier", "error", err)
			os.Exit(1)
		}
		notifier = tg
		logger.Info("review notifications enabled", "chat_id", cfg.ReviewChatID)
	}

	orchestrator := ingest.New(ingest.Options{
		Configs:  db,
		Dedup:    db,
		Mappings: db,
		Dialer:   mailbox.NewTLSDialer(cfg.IMAPDialTimeout, logger),
		Vault:    v,
		Engine:   engine,
		Ledger:   ledgerClient,
		Notifier: notifier,
		Retry: ingest.RetryPolicy{
			MaxAttempts: cfg.ConnectAttempts,
			BaseDelay:   cfg.ConnectBaseDelay,
			Retryable:   mailbox.IsRetryable,
		},
		Overlap:  cfg.SearchOverlap,
		Backfill: cfg.InitialBackfill,
		Logger:   logger,
	})

	sched := scheduler.New(db, orchestrator, cfg.TickInterval, cfg.RunTimeout, cfg.WorkerCount, logger)

	// Admin API
	server := api.New(sched, db, logger)
	go func() {
		if err := server.Start(cfg.AdminListenAddr); err != nil {
			logger.Error("admin server failed", "error", err)
		}
	}()
	logger.Info("admin server listening", "addr", cfg.AdminListenAddr)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received shutdown signal", "signal", sig)
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown failed", "error", err)
		}
		cancel()
	}()

	// Start scheduler; blocks until shutdown, then drains in-flight runs
	logger.Info("daemon is running, press Ctrl+C to stop")
	sched.Start(ctx)

	logger.Info("daemon stopped")
}

func setupLogger(level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := parseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		// Pretty colored output for console
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    false,
		})
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
