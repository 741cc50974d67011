package bot

import (
	"context"
	"fmt"

	"github.com/anthropics/telegram-neurocat/claude"
	"github.com/anthropics/telegram-neurocat/gpt"
	"github.com/anthropics/telegram-neurocat/internal/biz"
	"github.com/anthropics/telegram-neurocat/internal/biz/usecase"
	"github.com/anthropics/telegram-neurocat/internal/conf"
	"github.com/anthropics/telegram-neurocat/internal/data"
	"github.com/anthropics/telegram-neurocat/internal/server"
	"github.com/anthropics/telegram-neurocat/telegram"
)

// Bot wires the clients, repositories, usecases and the update server.
type Bot struct {
	config   *conf.Config
	server   *server.TelegramServer
	repos    *data.Repositories
	usecases *biz.Usecases
}

// New creates a fully wired bot from configuration
func New(config *conf.Config) (*Bot, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	telegramClient := telegram.NewClient(config.Telegram.BaseURL, config.Telegram.BotToken)
	gptClient := gpt.NewClient(config.OpenAI.APIKey, config.OpenAI.Model)
	claudeClient := claude.NewClient(config.Anthropic.APIKey)

	// The bot's own id gates reply-to-bot handling and self-attribution.
	me, err := telegramClient.GetMe(context.Background())
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	fmt.Printf("[Bot] authorized as %s (id=%d)\n", me.DisplayName(), me.ID)

	repos, err := data.NewRepositories(
		telegramClient,
		gptClient,
		claudeClient,
		config.Storage.HistoryDBPath,
		config.Storage.TrustFilePath,
		config.Telegram.OwnerID,
		config.Prompts.FormatDigestPrompt,
	)
	if err != nil {
		return nil, fmt.Errorf("init repositories: %w", err)
	}

	moderatorUC := usecase.NewModeratorUsecase(
		repos.Trust,
		repos.Chat,
		repos.Classifier,
		repos.Notifier,
		config.Prompts.Moderation.SystemPrompt,
	)

	interestUC := usecase.NewInterestUsecase(
		repos.Classifier,
		repos.History,
		repos.Notifier,
		config.Prompts.Interest.SystemPrompt,
		config.LocalTime,
	)

	webSearchUC := usecase.NewWebSearchUsecase(repos.Search, repos.Pages, repos.Summarizer)

	responderUC := usecase.NewResponderUsecase(
		repos.History,
		repos.Generator,
		config.Prompts.Responder.SystemPrompt,
		config.LocalTime,
		usecase.ResponderLimits{
			UserDailyLimit:  config.Limits.UserDailyLimit,
			OwnerID:         config.Telegram.OwnerID,
			SystemUserIDs:   config.Telegram.SystemUserIDs,
			ChannelBotID:    config.Telegram.ChannelBotID,
			TrustedChannels: config.Telegram.TrustedChannels,
		},
	)

	pipelineUC := usecase.NewPipelineUsecase(
		moderatorUC,
		interestUC,
		webSearchUC,
		responderUC,
		repos.History,
		repos.Chat,
		repos.Vision,
		repos.Notifier,
		config.Storage.PhotoDir,
		me.ID,
	)

	usecases := &biz.Usecases{
		Moderator: moderatorUC,
		Interest:  interestUC,
		WebSearch: webSearchUC,
		Responder: responderUC,
		Pipeline:  pipelineUC,
	}

	srv := server.NewTelegramServer(
		telegramClient,
		usecases.Pipeline,
		usecases.Moderator,
		config.Telegram.AllowedGroups,
		config.Telegram.OwnerID,
		config.Prompts.StartMessage,
	)

	return &Bot{config: config, server: srv, repos: repos, usecases: usecases}, nil
}

// Start runs the update loop. Blocks until Stop is called.
func (b *Bot) Start() error {
	return b.server.Start()
}

// Stop shuts down the server and closes the history store.
func (b *Bot) Stop() {
	b.server.Stop()
	if err := b.repos.History.Close(); err != nil {
		fmt.Printf("[Bot] failed to close history store: %v\n", err)
	}
}
