package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Model ids by capability level.
const (
	ModelFun    = "claude-3-5-haiku-20241022"
	ModelSmart  = "claude-sonnet-4-5-20250929"
	ModelVision = "claude-sonnet-4-20250514" // modality default for image turns
)

// Client is the Anthropic API client used for reply generation.
type Client struct {
	client anthropic.Client
}

// NewClient creates a new Anthropic client
func NewClient(apiKey string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Turn is one ordered prompt message.
type Turn struct {
	Role      string // "user" or "assistant"
	Text      string
	ImagePath string // optional local JPEG, attached as a base64 block
}

// Request is a single generation call.
type Request struct {
	System      string
	Turns       []Turn
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generate invokes the model once and returns the concatenated text
// segments of the response.
func (c *Client) Generate(ctx context.Context, req *Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Turns))
	for _, t := range req.Turns {
		if t.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		if t.ImagePath != "" {
			data, err := os.ReadFile(t.ImagePath)
			if err != nil {
				return "", fmt.Errorf("read image %s: %w", t.ImagePath, err)
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			blocks = append(blocks, anthropic.NewImageBlockBase64("image/jpeg", encoded))
		}
		if t.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(t.Text))
		}
		if len(blocks) == 0 {
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(blocks...))
	}

	callCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("messages create: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
