package gpt

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the OpenAI API client used for the cheap model calls:
// interest classification, toxicity detection, web digests and photo
// descriptions.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// AnalyzeInterest runs the interest classifier over a message with short
// history context. Temperature is pinned to 0: the JSON contract relies on
// deterministic output. Returns the raw model text; decoding and degrading
// is the caller's job.
func (c *Client) AnalyzeInterest(ctx context.Context, systemPrompt, historyText, messageText string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleSystem, Content: "История последних сообщений:\n" + historyText},
			{Role: openai.ChatMessageRoleUser, Content: messageText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("interest completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DetectToxicity classifies text against the moderation prompt.
// The model is asked for a bare YES/NO verdict.
func (c *Client) DetectToxicity(ctx context.Context, systemPrompt, text string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   10,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return false, fmt.Errorf("toxicity completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("no response choices")
	}
	verdict := strings.TrimSpace(resp.Choices[0].Message.Content)
	return strings.HasPrefix(strings.ToUpper(verdict), "YES"), nil
}

// SummarizeSources condenses joined search-source text into a short digest.
func (c *Client) SummarizeSources(ctx context.Context, digestPrompt, joinedText string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: digestPrompt},
			{Role: openai.ChatMessageRoleUser, Content: joinedText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("digest completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DescribePhoto produces a short textual description of a local image,
// stored as the vision record for downstream context.
func (c *Client) DescribePhoto(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Опиши кратко (2-3 предложения), что изображено на этой картинке.",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
