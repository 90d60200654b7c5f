package database

import (
	"context"
	"fmt"
)

// IsProcessed reports whether a message has already been ingested for a user
func (db *DB) IsProcessed(ctx context.Context, userID int64, messageID string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM processed_messages WHERE user_id = ? AND message_id = ?`
	if err := db.GetContext(ctx, &count, query, userID, messageID); err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return count > 0, nil
}

// MarkProcessed records a message as ingested. The insert is idempotent:
// a duplicate (user_id, message_id) is silently ignored, so two racing runs
// cannot both observe a first-time insert. The unique constraint, not
// application locking, is what makes ingestion at-most-once.
func (db *DB) MarkProcessed(ctx context.Context, userID int64, messageID string) error {
	query := `INSERT OR IGNORE INTO processed_messages (user_id, message_id) VALUES (?, ?)`
	if _, err := db.ExecContext(ctx, query, userID, messageID); err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// CountProcessed returns the number of ingested messages for a user
func (db *DB) CountProcessed(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(1) FROM processed_messages WHERE user_id = ?`
	if err := db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count processed messages: %w", err)
	}
	return count, nil
}
