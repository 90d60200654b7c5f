package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kvashee/bankfeed/pkg/models"
)

// AccountForSender returns the mapped counter account for a sender or
// merchant key, or an empty string when no mapping exists.
func (db *DB) AccountForSender(ctx context.Context, userID int64, sender string) (string, error) {
	var account string
	query := `SELECT account_name FROM sender_mappings WHERE user_id = ? AND sender = ?`
	err := db.GetContext(ctx, &account, query, userID, sender)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up sender mapping: %w", err)
	}
	return account, nil
}

// UpsertMapping creates or updates a sender mapping
func (db *DB) UpsertMapping(ctx context.Context, m *models.SenderMapping) error {
	query := `
		INSERT INTO sender_mappings (user_id, sender, account_name)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, sender) DO UPDATE SET account_name = excluded.account_name
	`
	if _, err := db.ExecContext(ctx, query, m.UserID, m.Sender, m.AccountName); err != nil {
		return fmt.Errorf("failed to upsert sender mapping: %w", err)
	}
	return nil
}

// ListMappings returns all sender mappings for a user
func (db *DB) ListMappings(ctx context.Context, userID int64) ([]*models.SenderMapping, error) {
	var mappings []*models.SenderMapping
	query := `SELECT * FROM sender_mappings WHERE user_id = ? ORDER BY sender`
	if err := db.SelectContext(ctx, &mappings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sender mappings: %w", err)
	}
	return mappings, nil
}
