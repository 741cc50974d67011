package usecase

import (
	"context"
	"fmt"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

// ModeratorUsecase handles moderation of incoming group messages
type ModeratorUsecase struct {
	trustRepo  repo.TrustRepo
	chatRepo   repo.ChatRepo
	classifier repo.ClassifierRepo
	notifier   repo.Notifier

	moderationPrompt string
}

// NewModeratorUsecase creates a new moderator usecase
func NewModeratorUsecase(
	trustRepo repo.TrustRepo,
	chatRepo repo.ChatRepo,
	classifier repo.ClassifierRepo,
	notifier repo.Notifier,
	moderationPrompt string,
) *ModeratorUsecase {
	return &ModeratorUsecase{
		trustRepo:        trustRepo,
		chatRepo:         chatRepo,
		classifier:       classifier,
		notifier:         notifier,
		moderationPrompt: moderationPrompt,
	}
}

// Moderate checks an incoming message and returns true if it should be kept.
// Messages from trusted sources pass unchecked. Attachments from untrusted
// sources are deleted outright. Text goes through the toxicity classifier;
// classifier failures keep the message (fail open, never silence the chat
// because a provider hiccuped).
func (uc *ModeratorUsecase) Moderate(ctx context.Context, msg *domain.IncomingMessage) bool {
	senderID := msg.SenderID()
	senderName := msg.SenderName()
	senderUsername := usernameTag(msg)

	trusted, err := uc.trustRepo.Load(ctx)
	if err != nil {
		fmt.Printf("[Moderator] failed to load trust list: %v\n", err)
		trusted = &domain.TrustList{}
	}

	if uc.isTrusted(trusted, msg) {
		sourceID := senderID
		if sourceID == 0 && msg.SenderChat != nil {
			sourceID = msg.SenderChat.ID
		}
		uc.notifier.Notify(ctx, fmt.Sprintf(
			"Сообщение в группе НЕ проверяется (от доверенного источника ID %d)", sourceID))
		return true
	}

	// Attachments from untrusted sources are never kept.
	if msg.HasAttachment() {
		if err := uc.chatRepo.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			uc.notifier.Notify(ctx, fmt.Sprintf("❌ Ошибка удаления фото/документа: %v", err))
			return false
		}
		uc.notifier.Notify(ctx, fmt.Sprintf(
			"🚫 Фото/документ в группе %d\nОт: %s (%s, ID: %d)\nСтатус: УДАЛЕНО ✅",
			msg.ChatID, senderName, senderUsername, senderID))
		return false
	}

	text := msg.Text
	isBad := false
	if text != "" {
		bad, err := uc.classifier.DetectToxicity(ctx, uc.moderationPrompt, text)
		if err != nil {
			fmt.Printf("[Moderator] toxicity check failed: %v\n", err)
		} else {
			isBad = bad
		}
	}

	var report string
	if isBad {
		if err := uc.chatRepo.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			report = fmt.Sprintf("❌ Ошибка удаления сообщения: %v", err)
		} else {
			report = fmt.Sprintf(
				"🚫 ТОКСИЧНОЕ сообщение в группе\nГруппа: %d\nОтправитель: %s (%s, ID: %d)\nТекст: %s\nСтатус: УДАЛЕНО ✅",
				msg.ChatID, senderName, senderUsername, senderID, textPreview(text, 500))
		}
	} else {
		report = fmt.Sprintf(
			"✅ НОРМАЛЬНОЕ сообщение в группе\nГруппа: %d\nОтправитель: %s (%s, ID: %d)\nТекст: %s\nСтатус: ОСТАВЛЕНО 👍\n\n💡 Чтобы добавить в доверенные:\n/add_user %d",
			msg.ChatID, senderName, senderUsername, senderID, textPreview(text, 500), senderID)
	}

	uc.notifier.Notify(ctx, report)

	return !isBad
}

// AddTrustedUser adds a user id to the allow-list. Returns false when the
// id was already present.
func (uc *ModeratorUsecase) AddTrustedUser(ctx context.Context, userID int64) (bool, error) {
	trusted, err := uc.trustRepo.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load trust list: %w", err)
	}
	if !trusted.AddUser(userID) {
		return false, nil
	}
	if err := uc.trustRepo.Save(ctx, trusted); err != nil {
		return false, fmt.Errorf("save trust list: %w", err)
	}
	return true, nil
}

func (uc *ModeratorUsecase) isTrusted(trusted *domain.TrustList, msg *domain.IncomingMessage) bool {
	if trusted.HasUser(msg.SenderID()) {
		return true
	}
	if trusted.HasUsername(usernameTag(msg)) {
		return true
	}
	return msg.SenderChat != nil && trusted.HasChat(msg.SenderChat.ID)
}

// usernameTag formats the sender username as "@name", "@None" when absent.
func usernameTag(msg *domain.IncomingMessage) string {
	if msg.Sender != nil && msg.Sender.Username != "" {
		return "@" + msg.Sender.Username
	}
	return "@None"
}

func textPreview(text string, limit int) string {
	if text == "" {
		return "[без текста]"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
