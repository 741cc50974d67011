package data

import (
	"context"
	"fmt"

	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
	"github.com/anthropics/telegram-neurocat/telegram"
)

// telegramRepo implements the Chat repository over the Bot API client
type telegramRepo struct {
	client *telegram.Client
}

// NewTelegramRepo creates a new Telegram chat repository
func NewTelegramRepo(client *telegram.Client) repo.ChatRepo {
	return &telegramRepo{client: client}
}

func (r *telegramRepo) SendText(ctx context.Context, chatID int64, text string, replyTo int64) error {
	return r.client.SendMessage(ctx, chatID, text, replyTo)
}

func (r *telegramRepo) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return r.client.DeleteMessage(ctx, chatID, messageID)
}

func (r *telegramRepo) SetReaction(ctx context.Context, chatID, messageID int64, emoji string) error {
	return r.client.SetMessageReaction(ctx, chatID, messageID, emoji)
}

func (r *telegramRepo) DownloadAttachment(ctx context.Context, fileID, destPath string) error {
	return r.client.DownloadFile(ctx, fileID, destPath)
}

// Telegram message length cap is 4096; operator reports are cut below it.
const notifyChunkLimit = 3500

// ownerNotifier implements the operator notification port. Delivery is
// best-effort: failures are logged and never returned.
type ownerNotifier struct {
	client  *telegram.Client
	ownerID int64
}

// NewOwnerNotifier creates a Notifier that reports to the operator chat
func NewOwnerNotifier(client *telegram.Client, ownerID int64) repo.Notifier {
	return &ownerNotifier{client: client, ownerID: ownerID}
}

func (n *ownerNotifier) Notify(ctx context.Context, text string) {
	if n.ownerID == 0 || text == "" {
		return
	}
	for _, chunk := range chunkRunes(text, notifyChunkLimit) {
		if err := n.client.SendMessage(ctx, n.ownerID, chunk, 0); err != nil {
			fmt.Printf("[Notifier] failed to notify owner: %v\n", err)
			return
		}
	}
}

func chunkRunes(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
