package data

import (
	"context"

	"github.com/anthropics/telegram-neurocat/gpt"
)

// gptRepo adapts the OpenAI client to the classifier, vision and
// summarizer repository interfaces.
type gptRepo struct {
	client *gpt.Client

	// digestPrompt builds the digest system prompt for a search query.
	digestPrompt func(query string) string
}

// NewGPTRepo creates the OpenAI-backed repositories
func NewGPTRepo(client *gpt.Client, digestPrompt func(query string) string) *gptRepo {
	return &gptRepo{client: client, digestPrompt: digestPrompt}
}

func (r *gptRepo) AnalyzeInterest(ctx context.Context, systemPrompt, historyText, messageText string) (string, error) {
	return r.client.AnalyzeInterest(ctx, systemPrompt, historyText, messageText)
}

func (r *gptRepo) DetectToxicity(ctx context.Context, systemPrompt, text string) (bool, error) {
	return r.client.DetectToxicity(ctx, systemPrompt, text)
}

func (r *gptRepo) DescribePhoto(ctx context.Context, imagePath string) (string, error) {
	return r.client.DescribePhoto(ctx, imagePath)
}

func (r *gptRepo) SummarizeSources(ctx context.Context, query, joinedText string) (string, error) {
	return r.client.SummarizeSources(ctx, r.digestPrompt(query), joinedText)
}
