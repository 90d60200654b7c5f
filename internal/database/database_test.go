package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kvashee/bankfeed/pkg/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testConfig(userID int64) *models.EmailConfig {
	return &models.EmailConfig{
		UserID:                userID,
		IsEnabled:             true,
		EmailAddress:          "user@example.com",
		IMAPServer:            "imap.example.com",
		IMAPPort:              993,
		AppPassword:           "ciphertext",
		Senders:               "alerts@hdfcbank.net, alerts@sbi.co.in",
		PollIntervalMinutes:   60,
		DefaultCurrency:       "INR",
		DefaultAssetAccount:   "Assets:Bank:HDFC",
		DefaultExpenseAccount: "Expenses:Unknown",
	}
}

func TestGetConfigNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetConfig(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConfig for missing user: got %v, want ErrNotFound", err)
	}
}

func TestUpsertAndGetConfig(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertConfig(ctx, testConfig(1)); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}

	got, err := db.GetConfig(ctx, 1)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.EmailAddress != "user@example.com" {
		t.Errorf("email = %q", got.EmailAddress)
	}
	if got.LastCheckTime != nil {
		t.Errorf("new config has last_check_time %v, want nil", got.LastCheckTime)
	}
	if senders := got.SenderList(); len(senders) != 2 || senders[0] != "alerts@hdfcbank.net" {
		t.Errorf("senders = %v", senders)
	}

	// Second upsert replaces fields without duplicating the row
	updated := testConfig(1)
	updated.IMAPServer = "imap.gmail.com"
	if err := db.UpsertConfig(ctx, updated); err != nil {
		t.Fatalf("UpsertConfig update: %v", err)
	}
	got, err = db.GetConfig(ctx, 1)
	if err != nil {
		t.Fatalf("GetConfig after update: %v", err)
	}
	if got.IMAPServer != "imap.gmail.com" {
		t.Errorf("server after update = %q", got.IMAPServer)
	}
}

func TestListEnabledConfigs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	enabled := testConfig(1)
	disabled := testConfig(2)
	disabled.IsEnabled = false

	for _, cfg := range []*models.EmailConfig{enabled, disabled} {
		if err := db.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertConfig: %v", err)
		}
	}

	configs, err := db.ListEnabledConfigs(ctx)
	if err != nil {
		t.Fatalf("ListEnabledConfigs: %v", err)
	}
	if len(configs) != 1 || configs[0].UserID != 1 {
		t.Errorf("enabled configs = %v, want only user 1", configs)
	}
}

func TestUpdateLastCheckTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertConfig(ctx, testConfig(1)); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}

	checkpoint := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := db.UpdateLastCheckTime(ctx, 1, checkpoint); err != nil {
		t.Fatalf("UpdateLastCheckTime: %v", err)
	}

	got, err := db.GetConfig(ctx, 1)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.LastCheckTime == nil || !got.LastCheckTime.Equal(checkpoint) {
		t.Errorf("last_check_time = %v, want %v", got.LastCheckTime, checkpoint)
	}
}

func TestSetConfigEnabled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertConfig(ctx, testConfig(1)); err != nil {
		t.Fatalf("UpsertConfig: %v", err)
	}
	if err := db.SetConfigEnabled(ctx, 1, false); err != nil {
		t.Fatalf("SetConfigEnabled: %v", err)
	}

	got, err := db.GetConfig(ctx, 1)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.IsEnabled {
		t.Error("config still enabled after SetConfigEnabled(false)")
	}
}

func TestMarkProcessedIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const msgID = "<alert-123@hdfcbank.net>"

	processed, err := db.IsProcessed(ctx, 1, msgID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Error("message processed before marking")
	}

	// Marking twice must not error and must leave exactly one row
	for i := 0; i < 2; i++ {
		if err := db.MarkProcessed(ctx, 1, msgID); err != nil {
			t.Fatalf("MarkProcessed attempt %d: %v", i+1, err)
		}
	}

	processed, err = db.IsProcessed(ctx, 1, msgID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Error("message not processed after marking")
	}

	count, err := db.CountProcessed(ctx, 1)
	if err != nil {
		t.Fatalf("CountProcessed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after duplicate marks", count)
	}
}

func TestProcessedIsScopedPerUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const msgID = "<shared-id@bank.com>"
	if err := db.MarkProcessed(ctx, 1, msgID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	processed, err := db.IsProcessed(ctx, 2, msgID)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Error("user 2 sees user 1's processed message")
	}
}

func TestSenderMappings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	account, err := db.AccountForSender(ctx, 1, "SWIGGY")
	if err != nil {
		t.Fatalf("AccountForSender: %v", err)
	}
	if account != "" {
		t.Errorf("unmapped sender resolved to %q", account)
	}

	m := &models.SenderMapping{UserID: 1, Sender: "SWIGGY", AccountName: "Expenses:Food"}
	if err := db.UpsertMapping(ctx, m); err != nil {
		t.Fatalf("UpsertMapping: %v", err)
	}

	account, err = db.AccountForSender(ctx, 1, "SWIGGY")
	if err != nil {
		t.Fatalf("AccountForSender: %v", err)
	}
	if account != "Expenses:Food" {
		t.Errorf("account = %q, want Expenses:Food", account)
	}

	// Remap to a different account
	m.AccountName = "Expenses:Dining"
	if err := db.UpsertMapping(ctx, m); err != nil {
		t.Fatalf("UpsertMapping remap: %v", err)
	}
	account, _ = db.AccountForSender(ctx, 1, "SWIGGY")
	if account != "Expenses:Dining" {
		t.Errorf("account after remap = %q, want Expenses:Dining", account)
	}

	mappings, err := db.ListMappings(ctx, 1)
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(mappings) != 1 {
		t.Errorf("got %d mappings, want 1", len(mappings))
	}
}
