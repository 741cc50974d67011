package data

import (
	"context"

	"github.com/anthropics/telegram-neurocat/claude"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

// claudeRepo implements the Generator repository over the Anthropic client
type claudeRepo struct {
	client *claude.Client
}

// NewClaudeRepo creates a new generation repository
func NewClaudeRepo(client *claude.Client) repo.GeneratorRepo {
	return &claudeRepo{client: client}
}

func (r *claudeRepo) Generate(ctx context.Context, req *repo.GenerateRequest) (string, error) {
	turns := make([]claude.Turn, 0, len(req.Turns))
	for _, t := range req.Turns {
		turns = append(turns, claude.Turn{
			Role:      string(t.Role),
			Text:      t.Text,
			ImagePath: t.ImagePath,
		})
	}
	return r.client.Generate(ctx, &claude.Request{
		System:      req.SystemPrompt,
		Turns:       turns,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: float64(req.Temperature),
	})
}
