package repo

import (
	"context"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
)

// ClassifierRepo is the cheap classification provider (interest + toxicity).
type ClassifierRepo interface {
	// AnalyzeInterest runs the interest classifier and returns the raw
	// model text, expected (but not guaranteed) to be the decision JSON.
	AnalyzeInterest(ctx context.Context, systemPrompt, historyText, messageText string) (string, error)

	// DetectToxicity classifies text against the moderation prompt.
	DetectToxicity(ctx context.Context, systemPrompt, text string) (bool, error)
}

// VisionRepo describes photos for the vision history records.
type VisionRepo interface {
	DescribePhoto(ctx context.Context, imagePath string) (string, error)
}

// SearchResult is one entry from the external search index.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// SearchRepo queries the external search index.
type SearchRepo interface {
	Search(ctx context.Context, query string, numResults int) ([]SearchResult, error)
}

// PageFetcher retrieves the visible text of a web page.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// SummarizerRepo condenses fetched source text into a short digest.
type SummarizerRepo interface {
	SummarizeSources(ctx context.Context, query, joinedText string) (string, error)
}

// Turn is one ordered message of a generation prompt.
type Turn struct {
	Role      domain.Role // user or assistant
	Text      string
	ImagePath string // optional local image, sent as a base64 block
}

// GenerateRequest is a single call to the generation provider.
type GenerateRequest struct {
	SystemPrompt string
	Turns        []Turn
	Model        string // provider model id
	MaxTokens    int
	Temperature  float32
}

// GeneratorRepo is the reply generation provider.
type GeneratorRepo interface {
	// Generate returns the concatenated text segments of the response.
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
