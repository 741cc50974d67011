package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

// interestHistoryLimit is how many recent records feed the classifier.
const interestHistoryLimit = 3

// InterestUsecase classifies messages for interest and routing
type InterestUsecase struct {
	classifier  repo.ClassifierRepo
	historyRepo repo.HistoryRepo
	notifier    repo.Notifier

	interestPrompt string
	localTime      func() string
}

// NewInterestUsecase creates a new interest usecase
func NewInterestUsecase(
	classifier repo.ClassifierRepo,
	historyRepo repo.HistoryRepo,
	notifier repo.Notifier,
	interestPrompt string,
	localTime func() string,
) *InterestUsecase {
	return &InterestUsecase{
		classifier:     classifier,
		historyRepo:    historyRepo,
		notifier:       notifier,
		interestPrompt: interestPrompt,
		localTime:      localTime,
	}
}

// Analyze runs the remote classifier over the message and recent chat
// history and returns a fully-populated decision. The classifier is the
// primary source; any failure degrades to the local defaults. A message
// authored by or forwarded from a channel is always interesting.
func (uc *InterestUsecase) Analyze(ctx context.Context, msg *domain.IncomingMessage, messageText string) domain.Decision {
	systemPrompt := fmt.Sprintf("%s\n\n⚡️ Сейчас %s (локальное время НейроКота).",
		uc.interestPrompt, uc.localTime())

	historyText := uc.formatHistory(ctx, msg.ChatID)

	raw, err := uc.classifier.AnalyzeInterest(ctx, systemPrompt, historyText, messageText)
	if err != nil {
		fmt.Printf("[Interest] classifier failed: %v\n", err)
		raw = ""
	}

	decision := domain.DecodeDecision(raw, messageText)

	if msg.IsChannelOrigin() {
		decision.Interest = true
	}

	return decision
}

// Report persists the decision onto the message's history record and, for
// uninteresting messages, sends the analysis report to the operator.
// Interesting messages are reported later with the full pipeline summary.
func (uc *InterestUsecase) Report(ctx context.Context, msg *domain.IncomingMessage, decision domain.Decision) {
	if err := uc.historyRepo.Annotate(ctx, msg.ChatID, msg.MessageID, decision.Interest, decision.Reaction); err != nil {
		fmt.Printf("[Interest] failed to annotate record: %v\n", err)
	}

	if decision.Interest {
		return
	}

	text := msg.Text
	if text == "" {
		text = "[без текста]"
	}
	preview := text
	if runes := []rune(text); len(runes) > 400 {
		preview = string(runes[:400]) + "…"
	}

	query := decision.Query
	if query == "" {
		query = "—"
	}

	report := fmt.Sprintf(
		"😴 НЕИНТЕРЕСНОЕ сообщение в группе %d\nОтправитель: %s\n\nТекст: %s\n🟢 Реакция: %s\n🌍 Поиск: %s | Запрос: %s\n🤖 Модель: %s",
		msg.ChatID, authorInfo(msg), preview, decision.Reaction,
		yesNo(decision.Search), query, decision.Model)

	uc.notifier.Notify(ctx, report)
}

func (uc *InterestUsecase) formatHistory(ctx context.Context, chatID int64) string {
	records, err := uc.historyRepo.Recent(ctx, chatID, interestHistoryLimit)
	if err != nil {
		fmt.Printf("[Interest] failed to load history: %v\n", err)
		return ""
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("[%s] user_id=%d role=%s: %s",
			rec.Created.Format("2006-01-02 15:04:05"), rec.UserID, rec.Role, rec.Content))
	}
	return strings.Join(lines, "\n")
}

// authorInfo renders the message author for operator reports: the channel
// when posted on a chat's behalf, the human account otherwise.
func authorInfo(msg *domain.IncomingMessage) string {
	if msg.SenderChat != nil {
		title := msg.SenderChat.Title
		if title == "" {
			title = "Без названия"
		}
		uname := "@None"
		if msg.SenderChat.Username != "" {
			uname = "@" + msg.SenderChat.Username
		}
		return fmt.Sprintf("Канал: %s (%s, ID: %d)", title, uname, msg.SenderChat.ID)
	}
	if msg.Sender != nil {
		name := msg.Sender.FirstName
		if name == "" {
			name = "?"
		}
		return fmt.Sprintf("Пользователь: %s (%s, ID: %d)", name, usernameTag(msg), msg.Sender.ID)
	}
	return "❓ Неизвестный отправитель"
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
