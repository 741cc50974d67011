package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
)

func textMessage(chatID, messageID, userID int64, text string) *domain.IncomingMessage {
	return &domain.IncomingMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Sender:    &domain.Sender{ID: userID, FirstName: "Вася"},
		Text:      text,
	}
}

func TestModerateTrustedUserBypassesChecks(t *testing.T) {
	trust := &mockTrustRepo{list: &domain.TrustList{Users: []int64{42}}}
	chat := &mockChatRepo{}
	notifier := &mockNotifier{}
	classifier := &mockClassifier{toxic: true} // would delete if checked

	uc := NewModeratorUsecase(trust, chat, classifier, notifier, "prompt")

	keep := uc.Moderate(context.Background(), textMessage(-100, 1, 42, "ты дурак"))
	if !keep {
		t.Fatal("trusted user's message should be kept")
	}
	if len(chat.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", chat.deleted)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "НЕ проверяется") {
		t.Errorf("expected trusted-source notice, got %v", notifier.messages)
	}
}

func TestModerateTrustedChannelBypassesChecks(t *testing.T) {
	trust := &mockTrustRepo{list: &domain.TrustList{Chats: []int64{-100500}}}
	chat := &mockChatRepo{}
	uc := NewModeratorUsecase(trust, chat, &mockClassifier{toxic: true}, &mockNotifier{}, "prompt")

	msg := &domain.IncomingMessage{
		ChatID:     -100,
		MessageID:  2,
		SenderChat: &domain.SenderChat{ID: -100500, Type: "channel", Title: "Новости"},
		Text:       "пост канала",
	}
	if !uc.Moderate(context.Background(), msg) {
		t.Fatal("trusted channel's message should be kept")
	}
}

func TestModerateDeletesAttachmentFromUntrusted(t *testing.T) {
	chat := &mockChatRepo{}
	notifier := &mockNotifier{}
	uc := NewModeratorUsecase(&mockTrustRepo{}, chat, &mockClassifier{}, notifier, "prompt")

	msg := textMessage(-100, 7, 5, "глянь")
	msg.Attachment = &domain.Attachment{Kind: domain.AttachmentPhoto, FileID: "f1"}

	if uc.Moderate(context.Background(), msg) {
		t.Fatal("attachment from untrusted sender should not be kept")
	}
	if len(chat.deleted) != 1 || chat.deleted[0] != 7 {
		t.Errorf("message 7 should be deleted, got %v", chat.deleted)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "УДАЛЕНО") {
		t.Errorf("expected deletion report, got %v", notifier.messages)
	}
}

func TestModerateDeletesToxicText(t *testing.T) {
	chat := &mockChatRepo{}
	notifier := &mockNotifier{}
	uc := NewModeratorUsecase(&mockTrustRepo{}, chat, &mockClassifier{toxic: true}, notifier, "prompt")

	if uc.Moderate(context.Background(), textMessage(-100, 3, 5, "оскорбление")) {
		t.Fatal("toxic message should not be kept")
	}
	if len(chat.deleted) != 1 {
		t.Errorf("toxic message should be deleted, got %v", chat.deleted)
	}
	if !strings.Contains(notifier.messages[0], "ТОКСИЧНОЕ") {
		t.Errorf("expected toxicity report, got %q", notifier.messages[0])
	}
}

func TestModerateKeepsNormalTextWithHint(t *testing.T) {
	chat := &mockChatRepo{}
	notifier := &mockNotifier{}
	uc := NewModeratorUsecase(&mockTrustRepo{}, chat, &mockClassifier{toxic: false}, notifier, "prompt")

	if !uc.Moderate(context.Background(), textMessage(-100, 3, 5, "привет всем")) {
		t.Fatal("normal message should be kept")
	}
	if len(chat.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", chat.deleted)
	}
	if !strings.Contains(notifier.messages[0], "/add_user 5") {
		t.Errorf("report should carry the add_user hint, got %q", notifier.messages[0])
	}
}

func TestModerateFailsOpenOnClassifierError(t *testing.T) {
	chat := &mockChatRepo{}
	classifier := &mockClassifier{toxicErr: errors.New("provider down")}
	uc := NewModeratorUsecase(&mockTrustRepo{}, chat, classifier, &mockNotifier{}, "prompt")

	if !uc.Moderate(context.Background(), textMessage(-100, 3, 5, "обычный текст")) {
		t.Fatal("classifier failure should keep the message")
	}
	if len(chat.deleted) != 0 {
		t.Errorf("nothing should be deleted on classifier failure, got %v", chat.deleted)
	}
}

func TestModerateTruncatesLongTextInReport(t *testing.T) {
	notifier := &mockNotifier{}
	uc := NewModeratorUsecase(&mockTrustRepo{}, &mockChatRepo{}, &mockClassifier{}, notifier, "prompt")

	long := strings.Repeat("я", 600)
	uc.Moderate(context.Background(), textMessage(-100, 3, 5, long))

	if strings.Contains(notifier.messages[0], long) {
		t.Error("report should not carry the full 600-rune text")
	}
	if !strings.Contains(notifier.messages[0], strings.Repeat("я", 500)) {
		t.Error("report should carry the 500-rune preview")
	}
}

func TestAddTrustedUser(t *testing.T) {
	trust := &mockTrustRepo{list: &domain.TrustList{Users: []int64{1}}}
	uc := NewModeratorUsecase(trust, &mockChatRepo{}, &mockClassifier{}, &mockNotifier{}, "prompt")

	added, err := uc.AddTrustedUser(context.Background(), 2)
	if err != nil || !added {
		t.Fatalf("expected new user added, got added=%v err=%v", added, err)
	}
	if trust.saved == nil || !trust.saved.HasUser(2) {
		t.Error("list with user 2 should be saved")
	}

	added, err = uc.AddTrustedUser(context.Background(), 2)
	if err != nil || added {
		t.Errorf("second add should be a no-op, got added=%v err=%v", added, err)
	}
}
