package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

const (
	searchNumResults = 5
	searchTimeout    = 20 * time.Second

	// SearchTimedOut replaces the digest when the search chain overran.
	SearchTimedOut = "⚠️ Источники не ответили вовремя."
)

// PipelineUsecase runs the full per-message chain: moderation, persistence,
// interest classification, reaction, optional web search and the reply.
type PipelineUsecase struct {
	moderator *ModeratorUsecase
	interest  *InterestUsecase
	webSearch *WebSearchUsecase
	responder *ResponderUsecase

	historyRepo repo.HistoryRepo
	chatRepo    repo.ChatRepo
	visionRepo  repo.VisionRepo
	notifier    repo.Notifier

	photoDir string
	botID    int64

	// searchTimeout is the outer bound on the whole search chain.
	searchTimeout time.Duration
}

// NewPipelineUsecase creates a new pipeline usecase
func NewPipelineUsecase(
	moderator *ModeratorUsecase,
	interest *InterestUsecase,
	webSearch *WebSearchUsecase,
	responder *ResponderUsecase,
	historyRepo repo.HistoryRepo,
	chatRepo repo.ChatRepo,
	visionRepo repo.VisionRepo,
	notifier repo.Notifier,
	photoDir string,
	botID int64,
) *PipelineUsecase {
	return &PipelineUsecase{
		moderator:   moderator,
		interest:    interest,
		webSearch:   webSearch,
		responder:   responder,
		historyRepo: historyRepo,
		chatRepo:    chatRepo,
		visionRepo:  visionRepo,
		notifier:      notifier,
		photoDir:      photoDir,
		botID:         botID,
		searchTimeout: searchTimeout,
	}
}

// HandleMessage processes one incoming group message end to end.
func (uc *PipelineUsecase) HandleMessage(ctx context.Context, msg *domain.IncomingMessage) {
	if !uc.moderator.Moderate(ctx, msg) {
		return
	}

	userID := msg.SenderID()
	userName := msg.SenderName()
	text := msg.Text

	imagePath := uc.persistIncoming(ctx, msg, userID, userName, text)

	if strings.TrimSpace(text) == "" && imagePath == "" {
		return
	}

	messageText := text
	if imagePath != "" {
		caption := text
		if caption == "" {
			caption = "без подписи"
		}
		messageText = fmt.Sprintf("📷 Фото. Подпись: %s", caption)
	}

	decision := uc.interest.Analyze(ctx, msg, messageText)
	uc.interest.Report(ctx, msg, decision)

	mustAnswer := msg.IsReplyToBot(uc.botID) && decision.Interest

	if !decision.Interest && !mustAnswer {
		return
	}

	if err := uc.chatRepo.SetReaction(ctx, msg.ChatID, msg.MessageID, decision.Reaction); err != nil {
		fmt.Printf("[Pipeline] failed to set reaction: %v\n", err)
	} else {
		fmt.Printf("[Pipeline] reaction set: %s\n", decision.Reaction)
	}

	var webSummary string
	if decision.Search {
		webSummary = uc.runSearch(ctx, msg, decision, text)
	}

	uc.reportPipeline(ctx, msg, userID, userName, text, decision, mustAnswer, webSummary)

	answer, err := uc.responder.GenerateReply(ctx, &ReplyRequest{
		ChatID:     msg.ChatID,
		UserID:     userID,
		UserName:   userName,
		Text:       text,
		ImagePath:  imagePath,
		Msg:        msg,
		WebSummary: webSummary,
		Model:      decision.Model,
	})
	if err != nil {
		fmt.Printf("[Pipeline] reply generation failed: %v\n", err)
		return
	}
	if answer == "" {
		return
	}

	if err := uc.chatRepo.SendText(ctx, msg.ChatID, answer, msg.MessageID); err != nil {
		fmt.Printf("[Pipeline] failed to send reply: %v\n", err)
		return
	}

	uc.saveRecord(ctx, msg, domain.BotUserID, domain.BotName, domain.RoleAssistant, answer, userID, domain.SourceClaude)

	if total, err := uc.historyRepo.BotRepliesToday(ctx); err == nil {
		fmt.Printf("[Pipeline] assistant replies today: %d\n", total)
	}
}

// persistIncoming stores the message in history and, for attachments,
// downloads the file and records the vision description. Returns the local
// image path, "" for plain text.
func (uc *PipelineUsecase) persistIncoming(ctx context.Context, msg *domain.IncomingMessage, userID int64, userName, text string) string {
	if !msg.HasAttachment() {
		role := domain.RoleUser
		if msg.Sender != nil && msg.Sender.IsBot && msg.Sender.ID == uc.botID {
			role = domain.RoleAssistant
		}
		uc.saveRecord(ctx, msg, userID, userName, role, text, 0, domain.SourceChat)
		return ""
	}

	if err := os.MkdirAll(uc.photoDir, 0755); err != nil {
		fmt.Printf("[Pipeline] failed to create photo dir: %v\n", err)
		return ""
	}

	ext := ".jpg"
	if msg.Attachment.Kind == domain.AttachmentDocument && msg.Attachment.FileName != "" {
		if e := filepath.Ext(msg.Attachment.FileName); e != "" {
			ext = e
		}
	}
	imagePath := filepath.Join(uc.photoDir, fmt.Sprintf("%d%s", msg.MessageID, ext))

	if err := uc.chatRepo.DownloadAttachment(ctx, msg.Attachment.FileID, imagePath); err != nil {
		fmt.Printf("[Pipeline] failed to download attachment: %v\n", err)
		return ""
	}
	fmt.Printf("[Pipeline] photo saved: %s\n", imagePath)

	content := "📷 Пользователь прислал фото"
	if text != "" {
		content = fmt.Sprintf("📷 Фото + подпись: %s", text)
	}
	uc.saveRecord(ctx, msg, userID, userName, domain.RoleUser, content, 0, domain.SourceChat)

	description, err := uc.visionRepo.DescribePhoto(ctx, imagePath)
	if err != nil {
		fmt.Printf("[Pipeline] photo analysis failed: %v\n", err)
	} else if description != "" {
		uc.saveRecord(ctx, msg, userID, userName, domain.RoleVision,
			fmt.Sprintf("🔎 Анализ фото: %s", description), 0, domain.SourceChat)
	}

	return imagePath
}

// runSearch executes the bounded web search chain and returns the summary
// to inject into generation, "" when the chain failed outright.
func (uc *PipelineUsecase) runSearch(ctx context.Context, msg *domain.IncomingMessage, decision domain.Decision, text string) string {
	query := decision.Query
	if query == "" {
		query = text
	}
	fmt.Printf("[Pipeline] running web search: %s\n", query)

	searchCtx, cancel := context.WithTimeout(ctx, uc.searchTimeout)
	defer cancel()

	summary, sources, err := uc.webSearch.SearchAndSummarize(searchCtx, query, searchNumResults)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Println("[Pipeline] web search timed out")
			return SearchTimedOut
		}
		fmt.Printf("[Pipeline] web search failed: %v\n", err)
		return ""
	}

	if len(sources) > 0 {
		shown := sources
		if len(shown) > searchNumResults {
			shown = shown[:searchNumResults]
		}
		lines := make([]string, 0, len(shown))
		for _, s := range shown {
			lines = append(lines, "- "+s)
		}
		summary += "\n\n🔗 Источники:\n" + strings.Join(lines, "\n")
	}

	uc.saveRecord(ctx, msg, domain.BotUserID, domain.BotName, domain.RoleAssistant, summary, 0, domain.SourceWeb)

	return summary
}

// reportPipeline sends the operator the full analysis summary for a
// message the bot decided to engage with.
func (uc *PipelineUsecase) reportPipeline(ctx context.Context, msg *domain.IncomingMessage, userID int64, userName, text string, decision domain.Decision, mustAnswer bool, webSummary string) {
	status := "НЕИНТЕРЕСНО ❌"
	if mustAnswer {
		status = "РЕПЛАЙ КОТУ — ответ (если интересное) ✅"
	} else if decision.Interest {
		status = "ИНТЕРЕСНО ✅"
	}

	reported := text
	if reported == "" {
		reported = "[без текста]"
	}
	query := decision.Query
	if query == "" {
		query = "—"
	}

	lines := []string{
		"✨ РЕЗУЛЬТАТ АНАЛИЗА СООБЩЕНИЯ",
		fmt.Sprintf("Группа: %d", msg.ChatID),
		fmt.Sprintf("Отправитель: %s (ID: %d)", userName, userID),
		fmt.Sprintf("Текст: %s", reported),
		fmt.Sprintf("Статус: %s", status),
		fmt.Sprintf("🟢 Реакция: %s", decision.Reaction),
		fmt.Sprintf("🌍 Поиск: %s | Запрос: %s", yesNo(decision.Search), query),
		fmt.Sprintf("🤖 Модель: %s", decision.Model),
	}
	if webSummary != "" {
		lines = append(lines, "", "🌍 РЕЗУЛЬТАТ ПОИСКА:", webSummary)
	}

	uc.notifier.Notify(ctx, strings.Join(lines, "\n"))
}

func (uc *PipelineUsecase) saveRecord(ctx context.Context, msg *domain.IncomingMessage, userID int64, name string, role domain.Role, content string, replyToUserID int64, source string) {
	rec := &domain.Record{
		ChatID:        msg.ChatID,
		MessageID:     msg.MessageID,
		UserID:        userID,
		FirstName:     name,
		Role:          role,
		Created:       time.Now(),
		Content:       content,
		ReplyToUserID: replyToUserID,
		Source:        source,
	}
	if err := uc.historyRepo.Append(ctx, rec); err != nil {
		fmt.Printf("[Pipeline] failed to save record: %v\n", err)
	}
}
