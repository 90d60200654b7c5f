// Package ingest coordinates one user's run through the ingestion
// pipeline: decrypt credentials, scan the mailbox, extract transactions,
// submit them to the ledger, and record each message as processed exactly
// once.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kvashee/bankfeed/internal/database"
	"github.com/kvashee/bankfeed/internal/extract"
	"github.com/kvashee/bankfeed/internal/mailbox"
	"github.com/kvashee/bankfeed/internal/parser"
	"github.com/kvashee/bankfeed/internal/vault"
	"github.com/kvashee/bankfeed/pkg/models"
)

// ConfigStore reads per-user mailbox configurations.
type ConfigStore interface {
	GetConfig(ctx context.Context, userID int64) (*models.EmailConfig, error)
	UpdateLastCheckTime(ctx context.Context, userID int64, t time.Time) error
}

// DedupStore is the registry of already-ingested message ids.
type DedupStore interface {
	IsProcessed(ctx context.Context, userID int64, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, userID int64, messageID string) error
}

// MappingStore resolves sender/merchant keys to counter accounts.
type MappingStore interface {
	AccountForSender(ctx context.Context, userID int64, sender string) (string, error)
}

// Ledger submits finalised transactions to the external ledger.
type Ledger interface {
	Submit(ctx context.Context, userID int64, candidate *models.Candidate) (string, error)
}

// Notifier surfaces messages that need human review. Implementations must
// not block the run; failures to notify are logged, never fatal.
type Notifier interface {
	ReviewNeeded(ctx context.Context, userID int64, messageID, reason string)
}

// Orchestrator runs the ingestion pipeline for one user at a time.
type Orchestrator struct {
	configs  ConfigStore
	dedup    DedupStore
	mappings MappingStore
	dialer   mailbox.Dialer
	vault    *vault.Vault
	engine   *extract.Engine
	ledger   Ledger
	notifier Notifier // optional
	body     *parser.BodyParser
	retry    RetryPolicy

	overlap  time.Duration // search window widening past last_check_time
	backfill time.Duration // window for a user with no previous run
	logger   *slog.Logger
}

// Options configures an Orchestrator.
type Options struct {
	Configs  ConfigStore
	Dedup    DedupStore
	Mappings MappingStore
	Dialer   mailbox.Dialer
	Vault    *vault.Vault
	Engine   *extract.Engine
	Ledger   Ledger
	Notifier Notifier
	Retry    RetryPolicy
	Overlap  time.Duration
	Backfill time.Duration
	Logger   *slog.Logger
}

// New creates an Orchestrator
func New(opts Options) *Orchestrator {
	if opts.Overlap <= 0 {
		opts.Overlap = 72 * time.Hour
	}
	if opts.Backfill <= 0 {
		opts.Backfill = 60 * 24 * time.Hour
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = mailbox.IsRetryable
	}
	return &Orchestrator{
		configs:  opts.Configs,
		dedup:    opts.Dedup,
		mappings: opts.Mappings,
		dialer:   opts.Dialer,
		vault:    opts.Vault,
		engine:   opts.Engine,
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		body:     parser.NewBodyParser(),
		retry:    opts.Retry,
		overlap:  opts.Overlap,
		backfill: opts.Backfill,
		logger:   opts.Logger.With("component", "ingest"),
	}
}

type fetchedMessage struct {
	ref mailbox.MessageRef
	msg *mailbox.Message
}

// Run executes one ingestion pass for a user. Per-message failures are
// recorded in the result and never abort the run; per-run failures
// (missing config aside) are returned as errors with the partial result.
func (o *Orchestrator) Run(ctx context.Context, userID int64) (*models.RunResult, error) {
	result := &models.RunResult{
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
	defer func() { result.FinishedAt = time.Now().UTC() }()

	logger := o.logger.With("user_id", userID)

	// Step 1: configuration. Disabled or missing means no mailbox session
	// is ever opened.
	cfg, err := o.configs.GetConfig(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		logger.Debug("no configuration, skipping run")
		return result, nil
	}
	if err != nil {
		result.AddError("", "config", err)
		return result, err
	}
	if !cfg.IsEnabled {
		logger.Debug("configuration disabled, skipping run")
		return result, nil
	}

	// Step 2: credentials. A decryption failure is a configuration
	// integrity fault: abort without touching last_check_time.
	password, err := o.vault.Decrypt(cfg.AppPassword)
	if err != nil {
		logger.Error("failed to decrypt credentials", "error", err)
		result.AddError("", "decrypt", err)
		return result, err
	}

	// Step 3: mailbox session, with bounded retry on connection errors.
	// Authentication failures are never retried.
	var session mailbox.Session
	retries, err := o.retry.Do(ctx, func() error {
		var dialErr error
		session, dialErr = o.dialer.Dial(ctx, cfg.IMAPServer, cfg.IMAPPort, cfg.EmailAddress, password)
		return dialErr
	})
	result.ConnectRetries = retries
	if err != nil {
		logger.Error("failed to connect to mailbox", "error", err, "retries", retries)
		result.AddError("", "connect", err)
		return result, err
	}
	defer session.Close()

	since := result.StartedAt.Add(-o.backfill)
	if cfg.LastCheckTime != nil {
		// The overlap window tolerates clock skew and late-arriving mail;
		// the dedup store absorbs the resulting re-reads.
		since = cfg.LastCheckTime.Add(-o.overlap)
	}

	refs, err := session.Search(ctx, cfg.SenderList(), since)
	if err != nil {
		logger.Error("mailbox search failed", "error", err)
		result.AddError("", "search", err)
		return result, err
	}
	logger.Info("mailbox search completed", "candidates", len(refs), "since", since)

	// Fetch bodies, then sort by message date ascending so a crash
	// mid-run leaves the dedup store as a clean resume point.
	fetched := make([]fetchedMessage, 0, len(refs))
	for _, ref := range refs {
		msg, err := session.Fetch(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("failed to fetch message", "uid", ref.UID, "error", err)
			result.AddError(fmt.Sprintf("uid:%d", ref.UID), "fetch", err)
			continue
		}
		fetched = append(fetched, fetchedMessage{ref: ref, msg: msg})
	}
	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].msg.Date.Before(fetched[j].msg.Date)
	})

	for _, fm := range fetched {
		// Cancellation checkpoint between messages; transactions already
		// submitted stay submitted.
		if err := ctx.Err(); err != nil {
			return result, err
		}
		o.processMessage(ctx, cfg, fm, result, logger)
	}

	// Step 5: the timestamp always advances; the dedup store, not
	// last_check_time, is the idempotency mechanism.
	if err := o.configs.UpdateLastCheckTime(ctx, userID, result.StartedAt); err != nil {
		logger.Error("failed to update last check time", "error", err)
		result.AddError("", "config", err)
	}

	logger.Info("run completed",
		"processed", result.ProcessedCount,
		"skipped", result.SkippedCount,
		"errors", len(result.Errors))
	return result, nil
}

// processMessage takes one message through dedup, extraction, validation,
// and submission. Failures mark nothing: the message stays eligible for
// the next run.
func (o *Orchestrator) processMessage(ctx context.Context, cfg *models.EmailConfig, fm fetchedMessage, result *models.RunResult, logger *slog.Logger) {
	msgID := fm.msg.MessageID
	msgLogger := logger.With("message_id", msgID)

	processed, err := o.dedup.IsProcessed(ctx, cfg.UserID, msgID)
	if err != nil {
		msgLogger.Error("dedup lookup failed", "error", err)
		result.AddError(msgID, "dedup", err)
		return
	}
	if processed {
		msgLogger.Debug("message already processed, skipping")
		result.SkippedCount++
		return
	}

	text := o.messageText(fm.msg)
	if text == "" {
		msgLogger.Warn("message has no readable body")
		result.AddError(msgID, "extract", errors.New("empty message body"))
		return
	}

	ext, err := o.engine.Extract(ctx, text, fm.ref.Sender)
	if err != nil {
		result.AddError(msgID, "extract", err)
		return
	}
	if ext == nil {
		msgLogger.Info("no transaction could be extracted, leaving unprocessed")
		result.AddError(msgID, "extract", errors.New("no extractor produced a result"))
		o.notifyReview(ctx, cfg.UserID, msgID, "extraction failed")
		return
	}

	candidate := extract.BuildCandidate(ext, extract.Defaults{
		Currency:       cfg.DefaultCurrency,
		AssetAccount:   cfg.DefaultAssetAccount,
		CounterAccount: o.counterAccount(ctx, cfg, ext.Merchant, fm.ref.Sender),
	})

	if !candidate.Balanced() {
		msgLogger.Error("candidate postings do not balance", "payee", candidate.Payee)
		result.AddError(msgID, "validate", errors.New("postings do not sum to zero"))
		return
	}

	txID, err := o.ledger.Submit(ctx, cfg.UserID, candidate)
	if err != nil {
		msgLogger.Error("ledger submission failed", "error", err)
		result.AddError(msgID, "submit", err)
		o.notifyReview(ctx, cfg.UserID, msgID, "ledger submission failed")
		return
	}

	// Mark only after a successful submission; never before, never on
	// failure.
	if err := o.dedup.MarkProcessed(ctx, cfg.UserID, msgID); err != nil {
		msgLogger.Error("failed to mark message processed", "error", err)
		result.AddError(msgID, "dedup", err)
		return
	}

	msgLogger.Info("transaction ingested",
		"transaction_id", txID,
		"payee", candidate.Payee,
		"confidence", candidate.Confidence)
	result.ProcessedCount++
}

// messageText picks the plain text part, falling back to flattened HTML
func (o *Orchestrator) messageText(msg *mailbox.Message) string {
	if msg.BodyText != "" {
		return o.body.Clean(msg.BodyText)
	}
	if msg.BodyHTML != "" {
		text, err := o.body.FlattenHTML(msg.BodyHTML)
		if err != nil {
			o.logger.Warn("failed to flatten HTML body", "error", err)
			return ""
		}
		return text
	}
	return ""
}

// counterAccount resolves the expense/income account for a transaction:
// merchant mapping first, then the alert sender, then the configured
// default.
func (o *Orchestrator) counterAccount(ctx context.Context, cfg *models.EmailConfig, merchant, sender string) string {
	for _, key := range []string{merchant, sender} {
		if key == "" {
			continue
		}
		account, err := o.mappings.AccountForSender(ctx, cfg.UserID, key)
		if err != nil {
			o.logger.Warn("sender mapping lookup failed", "key", key, "error", err)
			continue
		}
		if account != "" {
			return account
		}
	}
	return cfg.DefaultExpenseAccount
}

func (o *Orchestrator) notifyReview(ctx context.Context, userID int64, messageID, reason string) {
	if o.notifier == nil {
		return
	}
	o.notifier.ReviewNeeded(ctx, userID, messageID, reason)
}
