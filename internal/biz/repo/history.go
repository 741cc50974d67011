package repo

import (
	"context"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
)

// HistoryRepo is the durable per-chat message log (SQLite).
type HistoryRepo interface {
	// Append inserts a new record. Records are inserted exactly once.
	Append(ctx context.Context, rec *domain.Record) error

	// Annotate sets is_interesting and reaction on the already-inserted
	// record for (chatID, messageID). Idempotent: re-running with the same
	// values leaves the record unchanged and never creates rows.
	Annotate(ctx context.Context, chatID, messageID int64, interesting bool, reaction string) error

	// Recent returns the most recent limit records for a chat, ordered
	// created ascending (oldest first).
	Recent(ctx context.Context, chatID int64, limit int) ([]domain.Record, error)

	// UserRepliesToday counts today's assistant replies directed at userID
	// in chatID (calendar-day window).
	UserRepliesToday(ctx context.Context, chatID, userID int64) (int, error)

	// BotRepliesToday counts today's assistant replies across all chats.
	// Telemetry only; nothing gates on it.
	BotRepliesToday(ctx context.Context) (int, error)

	// Close closes the underlying store.
	Close() error
}
