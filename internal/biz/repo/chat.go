package repo

import "context"

// ChatRepo is the outbound interface to the messaging platform.
type ChatRepo interface {
	// SendText sends a text message, optionally as a reply (replyTo > 0).
	SendText(ctx context.Context, chatID int64, text string, replyTo int64) error

	// DeleteMessage removes a message from the chat.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error

	// SetReaction attaches a single emoji reaction to a message.
	SetReaction(ctx context.Context, chatID, messageID int64, emoji string) error

	// DownloadAttachment fetches a platform file to a local path.
	DownloadAttachment(ctx context.Context, fileID, destPath string) error
}

// Notifier delivers best-effort audit/report messages to the operator.
// Failures are logged by the implementation and never surface to callers,
// so pipeline state can never depend on delivery.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
