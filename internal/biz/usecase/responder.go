package usecase

import (
	"context"
	"fmt"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

// Tier labels map to concrete Anthropic model ids.
var modelMap = map[domain.ModelTier]string{
	domain.ModelFun:   "claude-3-5-haiku-20241022",
	domain.ModelSmart: "claude-sonnet-4-5-20250929",
}

const (
	// modelVision answers photo messages when no tier was forced.
	modelVision = "claude-sonnet-4-20250514"

	// modelFallback answers plain text when no tier was forced.
	modelFallback = "claude-3-5-haiku-20241022"

	replyMaxTokens   = 800
	replyTemperature = 0.7

	// responderHistoryLimit is how many records feed the generation prompt.
	responderHistoryLimit = 15
)

// ResponderLimits carries quota configuration and the identities exempt
// from it.
type ResponderLimits struct {
	UserDailyLimit  int
	OwnerID         int64
	SystemUserIDs   []int64
	ChannelBotID    int64
	TrustedChannels []int64
}

// ResponderUsecase generates chat replies
type ResponderUsecase struct {
	historyRepo repo.HistoryRepo
	generator   repo.GeneratorRepo

	systemPrompt string
	localTime    func() string
	limits       ResponderLimits
}

// NewResponderUsecase creates a new responder usecase
func NewResponderUsecase(
	historyRepo repo.HistoryRepo,
	generator repo.GeneratorRepo,
	systemPrompt string,
	localTime func() string,
	limits ResponderLimits,
) *ResponderUsecase {
	return &ResponderUsecase{
		historyRepo:  historyRepo,
		generator:    generator,
		systemPrompt: systemPrompt,
		localTime:    localTime,
		limits:       limits,
	}
}

// ReplyRequest describes one generation attempt.
type ReplyRequest struct {
	ChatID     int64
	UserID     int64
	UserName   string
	Text       string
	ImagePath  string
	Msg        *domain.IncomingMessage
	WebSummary string
	Model      domain.ModelTier // tier chosen by the classifier, may be empty
}

// GenerateReply produces the bot's answer, or "" when the per-user daily
// quota is exhausted. Provider failures return an error; the caller
// decides whether silence is acceptable.
func (uc *ResponderUsecase) GenerateReply(ctx context.Context, req *ReplyRequest) (string, error) {
	if uc.quotaExceeded(ctx, req) {
		fmt.Printf("[Responder] daily limit of %d replies reached for user_id=%d\n",
			uc.limits.UserDailyLimit, req.UserID)
		return "", nil
	}

	systemPrompt := fmt.Sprintf(
		"%s\n\n⚡️ Сейчас %s (локальное время НейроКота).\n\n‼️ ВАЖНО: всегда отвечай именно на последнее сообщение в истории. Предыдущие реплики учитывай только как фон.",
		uc.systemPrompt, uc.localTime())

	if req.WebSummary != "" {
		systemPrompt += "\n\n📌 ВНИМАНИЕ: Ниже приведены результаты веб-поиска по запросу пользователя. " +
			"Это уже готовая информация из интернета, используй её для ответа. " +
			"Не говори, что у тебя нет доступа к сети.\n" + req.WebSummary
	}

	turns, err := uc.buildTurns(ctx, req)
	if err != nil {
		return "", err
	}

	answer, err := uc.generator.Generate(ctx, &repo.GenerateRequest{
		SystemPrompt: systemPrompt,
		Turns:        turns,
		Model:        uc.chooseModel(req),
		MaxTokens:    replyMaxTokens,
		Temperature:  replyTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return answer, nil
}

func (uc *ResponderUsecase) buildTurns(ctx context.Context, req *ReplyRequest) ([]repo.Turn, error) {
	records, err := uc.historyRepo.Recent(ctx, req.ChatID, responderHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	turns := make([]repo.Turn, 0, len(records)+1)
	for _, rec := range records {
		if rec.Content == "" {
			continue
		}
		if rec.Role == domain.RoleAssistant {
			turns = append(turns, repo.Turn{Role: domain.RoleAssistant, Text: rec.Content})
			continue
		}
		turns = append(turns, repo.Turn{
			Role: domain.RoleUser,
			Text: fmt.Sprintf("%s: %s %s", rec.FirstName, rec.Content, interestTag(rec.Interesting)),
		})
	}

	// The message being answered goes last, explicitly marked so the
	// model does not pick an older thread to respond to.
	switch {
	case req.ImagePath != "":
		text := req.Text
		if text == "" {
			text = "[Фото]"
		}
		turns = append(turns, repo.Turn{
			Role:      domain.RoleUser,
			Text:      "‼️ Вот последнее сообщение, на которое нужно ответить: " + text,
			ImagePath: req.ImagePath,
		})
	case req.UserName != "" && req.Text != "":
		turns = append(turns, repo.Turn{
			Role: domain.RoleUser,
			Text: fmt.Sprintf("‼️ Вот последнее сообщение, на которое нужно ответить: %s: %s", req.UserName, req.Text),
		})
	}

	return turns, nil
}

func (uc *ResponderUsecase) chooseModel(req *ReplyRequest) string {
	if model, ok := modelMap[req.Model]; ok {
		return model
	}
	if req.ImagePath != "" {
		return modelVision
	}
	return modelFallback
}

// quotaExceeded checks the per-user-per-chat daily cap. The operator,
// platform service accounts and trusted channels are exempt. A counting
// failure does not block the reply.
func (uc *ResponderUsecase) quotaExceeded(ctx context.Context, req *ReplyRequest) bool {
	if req.UserID == 0 || req.UserID == uc.limits.OwnerID || uc.isExempt(req) {
		return false
	}
	count, err := uc.historyRepo.UserRepliesToday(ctx, req.ChatID, req.UserID)
	if err != nil {
		fmt.Printf("[Responder] failed to count daily replies: %v\n", err)
		return false
	}
	return count >= uc.limits.UserDailyLimit
}

func (uc *ResponderUsecase) isExempt(req *ReplyRequest) bool {
	for _, id := range uc.limits.SystemUserIDs {
		if req.UserID == id {
			return true
		}
	}
	// The channel relay account is exempt only when relaying a trusted
	// channel's post.
	if req.UserID == uc.limits.ChannelBotID && req.Msg != nil && req.Msg.SenderChat != nil {
		for _, id := range uc.limits.TrustedChannels {
			if req.Msg.SenderChat.ID == id {
				return true
			}
		}
	}
	return false
}

func interestTag(interesting *bool) string {
	switch {
	case interesting == nil:
		return "(без оценки)"
	case *interesting:
		return "(✨ помечено как интересное)"
	default:
		return "(😴 помечено как неинтересное)"
	}
}
