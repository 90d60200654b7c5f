package database

const schema = `
CREATE TABLE IF NOT EXISTS email_configs (
    user_id INTEGER PRIMARY KEY,
    is_enabled BOOLEAN DEFAULT true,
    email_address TEXT NOT NULL,
    imap_server TEXT NOT NULL,
    imap_port INTEGER NOT NULL DEFAULT 993,
    app_password TEXT NOT NULL,
    senders TEXT NOT NULL DEFAULT '',
    poll_interval_minutes INTEGER NOT NULL DEFAULT 60,
    default_currency TEXT NOT NULL DEFAULT 'INR',
    default_asset_account TEXT NOT NULL DEFAULT 'Assets:Bank:Checking',
    default_expense_account TEXT NOT NULL DEFAULT 'Expenses:Unknown',
    last_check_time DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS processed_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    message_id TEXT NOT NULL,
    processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(user_id, message_id)
);

CREATE TABLE IF NOT EXISTS sender_mappings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    sender TEXT NOT NULL,
    account_name TEXT NOT NULL,
    UNIQUE(user_id, sender)
);

CREATE INDEX IF NOT EXISTS idx_configs_enabled ON email_configs(is_enabled);
CREATE INDEX IF NOT EXISTS idx_processed_user ON processed_messages(user_id);
CREATE INDEX IF NOT EXISTS idx_mappings_user ON sender_mappings(user_id);
`
