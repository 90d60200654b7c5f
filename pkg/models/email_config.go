package models

import (
	"strings"
	"time"
)

// EmailConfig represents a user's mailbox automation settings. Rows are
// created and edited through the external configuration API; the pipeline
// only reads them and advances LastCheckTime.
type EmailConfig struct {
	UserID                int64      `db:"user_id"`
	IsEnabled             bool       `db:"is_enabled"`
	EmailAddress          string     `db:"email_address"`
	IMAPServer            string     `db:"imap_server"`
	IMAPPort              int        `db:"imap_port"`
	AppPassword           string     `db:"app_password"` // vault ciphertext, never plaintext
	Senders               string     `db:"senders"`      // comma-separated bank alert addresses
	PollIntervalMinutes   int        `db:"poll_interval_minutes"`
	DefaultCurrency       string     `db:"default_currency"`
	DefaultAssetAccount   string     `db:"default_asset_account"`
	DefaultExpenseAccount string     `db:"default_expense_account"`
	LastCheckTime         *time.Time `db:"last_check_time"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// SenderList splits the stored sender column into individual addresses.
func (c *EmailConfig) SenderList() []string {
	var senders []string
	for _, s := range strings.Split(c.Senders, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			senders = append(senders, s)
		}
	}
	return senders
}

// PollInterval returns the polling interval as a duration, defaulting to
// one hour when the configured value is missing or invalid.
func (c *EmailConfig) PollInterval() time.Duration {
	if c.PollIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.PollIntervalMinutes) * time.Minute
}
