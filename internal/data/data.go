package data

import (
	"time"

	"github.com/anthropics/telegram-neurocat/claude"
	"github.com/anthropics/telegram-neurocat/gpt"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
	"github.com/anthropics/telegram-neurocat/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	History    repo.HistoryRepo
	Trust      repo.TrustRepo
	Chat       repo.ChatRepo
	Notifier   repo.Notifier
	Classifier repo.ClassifierRepo
	Vision     repo.VisionRepo
	Summarizer repo.SummarizerRepo
	Search     repo.SearchRepo
	Pages      repo.PageFetcher
	Generator  repo.GeneratorRepo
}

// NewRepositories creates all repositories
func NewRepositories(
	telegramClient *telegram.Client,
	gptClient *gpt.Client,
	claudeClient *claude.Client,
	historyDBPath string,
	trustFilePath string,
	ownerID int64,
	digestPrompt func(query string) string,
) (*Repositories, error) {
	historyRepo, err := NewHistoryRepo(historyDBPath)
	if err != nil {
		return nil, err
	}

	gptRepo := NewGPTRepo(gptClient, digestPrompt)

	return &Repositories{
		History:    historyRepo,
		Trust:      NewTrustRepo(trustFilePath),
		Chat:       NewTelegramRepo(telegramClient),
		Notifier:   NewOwnerNotifier(telegramClient, ownerID),
		Classifier: gptRepo,
		Vision:     gptRepo,
		Summarizer: gptRepo,
		Search:     NewSearchRepo(),
		Pages:      NewPageFetcher(5 * time.Second),
		Generator:  NewClaudeRepo(claudeClient),
	}, nil
}
