package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/bankfeed.db"`

	// Ledger collaborator
	LedgerURL   string `env:"LEDGER_API_URL,required"` // e.g., https://ledger.example.com
	LedgerToken string `env:"LEDGER_API_TOKEN"`

	// Fallback extractor
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-lite"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"20s"`

	// Mailbox
	IMAPDialTimeout  time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	SearchOverlap    time.Duration `env:"SEARCH_OVERLAP" envDefault:"72h"`
	InitialBackfill  time.Duration `env:"INITIAL_BACKFILL" envDefault:"1440h"` // ~60 days
	ConnectAttempts  int           `env:"CONNECT_ATTEMPTS" envDefault:"3"`
	ConnectBaseDelay time.Duration `env:"CONNECT_BASE_DELAY" envDefault:"2s"`

	// Scheduler
	TickInterval time.Duration `env:"SCHEDULER_TICK" envDefault:"1m"`
	WorkerCount  int           `env:"WORKER_COUNT" envDefault:"4"`
	RunTimeout   time.Duration `env:"RUN_TIMEOUT" envDefault:"45s"`

	// Admin API
	AdminListenAddr string `env:"ADMIN_LISTEN_ADDR" envDefault:":8080"`

	// Review notifications (optional)
	ReviewBotToken string `env:"REVIEW_BOT_TOKEN"`
	ReviewChatID   int64  `env:"REVIEW_CHAT_ID"`

	// Security
	EncryptionKey string `env:"ENCRYPTION_KEY,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// ReviewEnabled returns true if Telegram review notifications are configured
func (c *Config) ReviewEnabled() bool {
	return c.ReviewBotToken != "" && c.ReviewChatID != 0
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate encryption key length (32 bytes for AES-256)
	if len(cfg.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(cfg.EncryptionKey))
	}

	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be positive, got %d", cfg.WorkerCount)
	}

	// A run must fit inside one scheduler tick so a slow run cannot pile up
	// behind its own next dispatch.
	if cfg.RunTimeout >= cfg.TickInterval {
		return nil, fmt.Errorf("RUN_TIMEOUT (%s) must be shorter than SCHEDULER_TICK (%s)", cfg.RunTimeout, cfg.TickInterval)
	}

	return cfg, nil
}
