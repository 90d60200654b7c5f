package models

import "time"

// ProcessedMessage records that a mailbox message was ingested into the
// ledger. The (user_id, message_id) pair is unique and rows are append-only;
// this table is the sole mechanism behind exactly-once submission.
type ProcessedMessage struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	MessageID   string    `db:"message_id"`
	ProcessedAt time.Time `db:"processed_at"`
}

// SenderMapping maps a bank sender address (or merchant name) to the
// ledger account used as the counter posting for that sender.
type SenderMapping struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"`
	Sender      string `db:"sender"`
	AccountName string `db:"account_name"`
}
