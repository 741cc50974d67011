package usecase

import (
	"context"
	"fmt"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

type mockHistoryRepo struct {
	records       []domain.Record
	annotated     []string
	userCounts    map[int64]int
	recentErr     error
	botTodayCalls int
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{userCounts: make(map[int64]int)}
}

func (m *mockHistoryRepo) Append(ctx context.Context, rec *domain.Record) error {
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockHistoryRepo) Annotate(ctx context.Context, chatID, messageID int64, interesting bool, reaction string) error {
	m.annotated = append(m.annotated, fmt.Sprintf("%d:%d:%t:%s", chatID, messageID, interesting, reaction))
	return nil
}

func (m *mockHistoryRepo) Recent(ctx context.Context, chatID int64, limit int) ([]domain.Record, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if len(m.records) > limit {
		return m.records[len(m.records)-limit:], nil
	}
	return m.records, nil
}

func (m *mockHistoryRepo) UserRepliesToday(ctx context.Context, chatID, userID int64) (int, error) {
	return m.userCounts[userID], nil
}

func (m *mockHistoryRepo) BotRepliesToday(ctx context.Context) (int, error) {
	m.botTodayCalls++
	n := 0
	for _, rec := range m.records {
		if rec.Source == domain.SourceClaude {
			n++
		}
	}
	return n, nil
}

func (m *mockHistoryRepo) Close() error { return nil }

type mockTrustRepo struct {
	list    *domain.TrustList
	saved   *domain.TrustList
	loadErr error
}

func (m *mockTrustRepo) Load(ctx context.Context) (*domain.TrustList, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.list == nil {
		return &domain.TrustList{}, nil
	}
	return m.list, nil
}

func (m *mockTrustRepo) Save(ctx context.Context, list *domain.TrustList) error {
	m.saved = list
	return nil
}

type mockChatRepo struct {
	sent      []string
	deleted   []int64
	reactions []string
	deleteErr error
	sendErr   error
}

func (m *mockChatRepo) SendText(ctx context.Context, chatID int64, text string, replyTo int64) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockChatRepo) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockChatRepo) SetReaction(ctx context.Context, chatID, messageID int64, emoji string) error {
	m.reactions = append(m.reactions, emoji)
	return nil
}

func (m *mockChatRepo) DownloadAttachment(ctx context.Context, fileID, destPath string) error {
	return nil
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(ctx context.Context, text string) {
	m.messages = append(m.messages, text)
}

type mockClassifier struct {
	interestRaw string
	interestErr error
	toxic       bool
	toxicErr    error
}

func (m *mockClassifier) AnalyzeInterest(ctx context.Context, systemPrompt, historyText, messageText string) (string, error) {
	return m.interestRaw, m.interestErr
}

func (m *mockClassifier) DetectToxicity(ctx context.Context, systemPrompt, text string) (bool, error) {
	return m.toxic, m.toxicErr
}

type mockVision struct {
	description string
	err         error
}

func (m *mockVision) DescribePhoto(ctx context.Context, imagePath string) (string, error) {
	return m.description, m.err
}

type mockSearchRepo struct {
	results []repo.SearchResult
	err     error
}

func (m *mockSearchRepo) Search(ctx context.Context, query string, numResults int) ([]repo.SearchResult, error) {
	return m.results, m.err
}

type mockPageFetcher struct {
	pages map[string]string
	err   error
}

func (m *mockPageFetcher) FetchText(ctx context.Context, url string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.pages[url], nil
}

type mockSummarizer struct {
	summary    string
	err        error
	lastJoined string
}

func (m *mockSummarizer) SummarizeSources(ctx context.Context, query, joinedText string) (string, error) {
	m.lastJoined = joinedText
	return m.summary, m.err
}

type mockGenerator struct {
	answer  string
	err     error
	lastReq *repo.GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req *repo.GenerateRequest) (string, error) {
	m.lastReq = req
	return m.answer, m.err
}

func fixedTime() string { return "01.01.2026 12:00" }
