package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kvashee/bankfeed/pkg/models"
)

// GetConfig returns the email configuration for a user
func (db *DB) GetConfig(ctx context.Context, userID int64) (*models.EmailConfig, error) {
	var cfg models.EmailConfig
	query := `SELECT * FROM email_configs WHERE user_id = ?`
	err := db.GetContext(ctx, &cfg, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return &cfg, nil
}

// ListEnabledConfigs returns all enabled email configurations
func (db *DB) ListEnabledConfigs(ctx context.Context) ([]*models.EmailConfig, error) {
	var configs []*models.EmailConfig
	query := `SELECT * FROM email_configs WHERE is_enabled = true`
	err := db.SelectContext(ctx, &configs, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled configs: %w", err)
	}
	return configs, nil
}

// UpsertConfig creates or replaces a user's email configuration. The
// configuration API calls this with an already-encrypted app password;
// plaintext credentials never reach this layer.
func (db *DB) UpsertConfig(ctx context.Context, cfg *models.EmailConfig) error {
	query := `
		INSERT INTO email_configs (user_id, is_enabled, email_address, imap_server, imap_port, app_password, senders, poll_interval_minutes, default_currency, default_asset_account, default_expense_account, last_check_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			is_enabled = excluded.is_enabled,
			email_address = excluded.email_address,
			imap_server = excluded.imap_server,
			imap_port = excluded.imap_port,
			app_password = excluded.app_password,
			senders = excluded.senders,
			poll_interval_minutes = excluded.poll_interval_minutes,
			default_currency = excluded.default_currency,
			default_asset_account = excluded.default_asset_account,
			default_expense_account = excluded.default_expense_account,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		cfg.UserID,
		cfg.IsEnabled,
		cfg.EmailAddress,
		cfg.IMAPServer,
		cfg.IMAPPort,
		cfg.AppPassword,
		cfg.Senders,
		cfg.PollIntervalMinutes,
		cfg.DefaultCurrency,
		cfg.DefaultAssetAccount,
		cfg.DefaultExpenseAccount,
		cfg.LastCheckTime,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert config: %w", err)
	}
	cfg.UpdatedAt = now
	return nil
}

// UpdateLastCheckTime advances the last check timestamp for a user
func (db *DB) UpdateLastCheckTime(ctx context.Context, userID int64, t time.Time) error {
	query := `UPDATE email_configs SET last_check_time = ?, updated_at = ? WHERE user_id = ?`
	_, err := db.ExecContext(ctx, query, t, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last check time: %w", err)
	}
	return nil
}

// SetConfigEnabled sets the enabled flag of a configuration
func (db *DB) SetConfigEnabled(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE email_configs SET is_enabled = ?, updated_at = ? WHERE user_id = ?`
	_, err := db.ExecContext(ctx, query, enabled, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set config enabled: %w", err)
	}
	return nil
}
