package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

const (
	// NoSearchResults is returned when the index finds nothing.
	NoSearchResults = "Ничего не найдено."

	// NoSourceText is returned when every fetched page was empty.
	NoSourceText = "⚠️ Не удалось собрать текст из источников."

	// maxDigestSources caps how many source texts go into the digest.
	maxDigestSources = 6
)

// WebSearchUsecase handles the search, fetch and digest chain
type WebSearchUsecase struct {
	searchRepo repo.SearchRepo
	pages      repo.PageFetcher
	summarizer repo.SummarizerRepo
}

// NewWebSearchUsecase creates a new web search usecase
func NewWebSearchUsecase(
	searchRepo repo.SearchRepo,
	pages repo.PageFetcher,
	summarizer repo.SummarizerRepo,
) *WebSearchUsecase {
	return &WebSearchUsecase{
		searchRepo: searchRepo,
		pages:      pages,
		summarizer: summarizer,
	}
}

// SearchAndSummarize looks up the query, fetches the result pages
// concurrently and condenses their text into a short digest. Pages are
// fetched best-effort: a failed page contributes only its search snippet.
// An empty or failing index is not an error; both yield NoSearchResults.
// Only an expired context propagates, so the outer time bound still holds.
func (uc *WebSearchUsecase) SearchAndSummarize(ctx context.Context, query string, numResults int) (string, []string, error) {
	results, err := uc.searchRepo.Search(ctx, query, numResults)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, fmt.Errorf("search: %w", err)
		}
		fmt.Printf("[WebSearch] search failed: %v\n", err)
		return NoSearchResults, nil, nil
	}
	if len(results) == 0 {
		fmt.Println("[WebSearch] no search results")
		return NoSearchResults, nil, nil
	}

	texts := make([]string, len(results))
	var wg sync.WaitGroup
	for i, res := range results {
		texts[i] = res.Snippet

		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			pageText, err := uc.pages.FetchText(ctx, link)
			if err != nil {
				fmt.Printf("[WebSearch] failed to fetch %s: %v\n", link, err)
				return
			}
			if pageText != "" {
				texts[i] += "\n" + pageText
			}
		}(i, res.Link)
	}
	wg.Wait()

	sources := make([]string, 0, len(results))
	for _, res := range results {
		sources = append(sources, res.Link)
	}

	var nonEmpty []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			nonEmpty = append(nonEmpty, t)
		}
		if len(nonEmpty) == maxDigestSources {
			break
		}
	}
	joined := strings.Join(nonEmpty, "\n\n")
	if strings.TrimSpace(joined) == "" {
		return NoSourceText, sources, nil
	}

	summary, err := uc.summarizer.SummarizeSources(ctx, query, joined)
	if err != nil {
		return "", nil, fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(summary), sources, nil
}
