// Package notify surfaces messages that repeatedly fail extraction or
// submission, so they are reviewed by a human instead of silently ageing
// out of the mailbox search window.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

// TelegramNotifier posts needs-review alerts to a Telegram chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "notify"),
	}, nil
}

// ReviewNeeded posts an alert about an unprocessable message. Errors are
// logged only; notification must never fail a run.
func (n *TelegramNotifier) ReviewNeeded(ctx context.Context, userID int64, messageID, reason string) {
	// Detach from the run's deadline so a timed-out run can still report.
	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text := fmt.Sprintf("⚠️ Needs review\nUser: %d\nMessage: %s\nReason: %s", userID, messageID, reason)
	if _, err := n.bot.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	}); err != nil {
		n.logger.Error("failed to send review notification", "user_id", userID, "message_id", messageID, "error", err)
	}
}
