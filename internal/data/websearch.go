package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

const (
	searchBaseURL  = "https://html.duckduckgo.com/html/"
	fetchUserAgent = "Mozilla/5.0"

	// Per-page cap on extracted visible text.
	pageTextLimit = 1200
)

// ddgSearchRepo implements the Search repository over the DuckDuckGo HTML
// endpoint (no API key required).
type ddgSearchRepo struct {
	httpClient *http.Client
	baseURL    string
}

// NewSearchRepo creates a DuckDuckGo search repository
func NewSearchRepo() repo.SearchRepo {
	return &ddgSearchRepo{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    searchBaseURL,
	}
}

// NewSearchRepoWithBase creates a search repository against a custom
// endpoint (tests).
func NewSearchRepoWithBase(baseURL string) repo.SearchRepo {
	return &ddgSearchRepo{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (r *ddgSearchRepo) Search(ctx context.Context, query string, numResults int) ([]repo.SearchResult, error) {
	reqURL := r.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search parse: %w", err)
	}

	var results []repo.SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("a.result__a").Text())
		href, _ := s.Find("a.result__a").Attr("href")
		link := resolveRedirect(href)
		if link == "" {
			return true
		}
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())
		results = append(results, repo.SearchResult{
			Title:   title,
			Link:    link,
			Snippet: snippet,
		})
		return len(results) < numResults
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<url> redirect links.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}

// pageFetcher implements the PageFetcher repository: one short-timeout
// HTTP GET plus visible-text extraction.
type pageFetcher struct {
	httpClient *http.Client
}

// NewPageFetcher creates a page fetcher with a per-fetch timeout
func NewPageFetcher(timeout time.Duration) repo.PageFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &pageFetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *pageFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: http %d", pageURL, resp.StatusCode)
	}

	return ExtractVisibleText(resp.Body, pageTextLimit)
}

// ExtractVisibleText strips markup, scripts and styles from HTML and
// returns whitespace-collapsed text capped at limit runes. Text nodes are
// joined with a space so adjacent elements keep their word boundary.
func ExtractVisibleText(r io.Reader, limit int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	for _, root := range doc.Nodes {
		collectText(root, &parts)
	}

	text := strings.Join(parts, " ")
	runes := []rune(text)
	if limit > 0 && len(runes) > limit {
		text = string(runes[:limit])
	}
	return text, nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if fields := strings.Fields(n.Data); len(fields) > 0 {
			*parts = append(*parts, strings.Join(fields, " "))
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
