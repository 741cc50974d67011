package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"
)

const testBotID int64 = 900

type pipelineFixture struct {
	pipeline   *PipelineUsecase
	history    *mockHistoryRepo
	chat       *mockChatRepo
	notifier   *mockNotifier
	classifier *mockClassifier
	generator  *mockGenerator
	summarizer *mockSummarizer
	search     *mockSearchRepo
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		history:    newMockHistoryRepo(),
		chat:       &mockChatRepo{},
		notifier:   &mockNotifier{},
		classifier: &mockClassifier{},
		generator:  &mockGenerator{answer: "мяу, отвечаю"},
		summarizer: &mockSummarizer{summary: "конспект"},
		search:     &mockSearchRepo{},
	}

	moderator := NewModeratorUsecase(&mockTrustRepo{}, f.chat, f.classifier, f.notifier, "mod prompt")
	interest := NewInterestUsecase(f.classifier, f.history, f.notifier, "interest prompt", fixedTime)
	webSearch := NewWebSearchUsecase(f.search, &mockPageFetcher{pages: map[string]string{}}, f.summarizer)
	responder := NewResponderUsecase(f.history, f.generator, "prompt", fixedTime, testLimits())

	f.pipeline = NewPipelineUsecase(
		moderator, interest, webSearch, responder,
		f.history, f.chat, &mockVision{description: "кот на подоконнике"}, f.notifier,
		t.TempDir(), testBotID,
	)
	return f
}

func TestHandleMessageUninterestingIsSilent(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"NO","REACTION":["😴"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 1, 5, "обычная болтовня"))

	if len(f.chat.reactions) != 0 {
		t.Errorf("uninteresting message should get no reaction, got %v", f.chat.reactions)
	}
	if len(f.chat.sent) != 0 {
		t.Errorf("uninteresting message should get no reply, got %v", f.chat.sent)
	}
	if len(f.history.records) != 1 || f.history.records[0].Role != domain.RoleUser {
		t.Errorf("incoming message should still be persisted, got %v", f.history.records)
	}
	if len(f.history.annotated) != 1 {
		t.Errorf("decision should still be annotated, got %v", f.history.annotated)
	}
}

func TestHandleMessageInterestingRepliesAndReacts(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"YES","REACTION":["🔥"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 2, 5, "расскажи про котов"))

	if len(f.chat.reactions) != 1 || f.chat.reactions[0] != "🔥" {
		t.Errorf("reaction should be set, got %v", f.chat.reactions)
	}
	if len(f.chat.sent) != 1 || f.chat.sent[0] != "мяу, отвечаю" {
		t.Errorf("reply should be sent, got %v", f.chat.sent)
	}

	var botRec *domain.Record
	for i := range f.history.records {
		if f.history.records[i].Source == domain.SourceClaude {
			botRec = &f.history.records[i]
		}
	}
	if botRec == nil {
		t.Fatal("bot reply should be persisted with source claude")
	}
	if botRec.UserID != domain.BotUserID || botRec.FirstName != domain.BotName || botRec.ReplyToUserID != 5 {
		t.Errorf("bot record attribution wrong: %+v", botRec)
	}
	if f.history.botTodayCalls != 1 {
		t.Errorf("daily bot total should be read once per reply, got %d reads", f.history.botTodayCalls)
	}
}

func TestHandleMessageReplyToBotRequiresInterest(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"NO","REACTION":["🤔"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`

	msg := textMessage(-100, 3, 5, "а ты что думаешь?")
	msg.ReplyTo = &domain.ReplyTarget{
		MessageID: 2,
		Sender:    &domain.Sender{ID: testBotID, IsBot: true},
	}
	f.pipeline.HandleMessage(context.Background(), msg)

	if len(f.chat.sent) != 0 {
		t.Errorf("uninteresting reply to bot should be ignored, got %v", f.chat.sent)
	}
}

func TestHandleMessageSearchChain(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"YES","REACTION":["🔥"],"SEARCH":"YES","QUERY":"курс доллара","MODEL":"SMART"}`
	f.search.results = []repo.SearchResult{
		{Link: "https://a.example", Snippet: "текст источника"},
	}

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 4, 5, "какой сейчас курс доллара?"))

	var webRec *domain.Record
	for i := range f.history.records {
		if f.history.records[i].Source == domain.SourceWeb {
			webRec = &f.history.records[i]
		}
	}
	if webRec == nil {
		t.Fatal("search digest should be persisted with source web")
	}
	if !strings.Contains(webRec.Content, "конспект") || !strings.Contains(webRec.Content, "🔗 Источники:") {
		t.Errorf("web record should carry digest and sources, got %q", webRec.Content)
	}
	if !strings.Contains(webRec.Content, "- https://a.example") {
		t.Errorf("sources list malformed: %q", webRec.Content)
	}

	var report string
	for _, m := range f.notifier.messages {
		if strings.Contains(m, "РЕЗУЛЬТАТ АНАЛИЗА СООБЩЕНИЯ") {
			report = m
		}
	}
	if report == "" {
		t.Fatal("pipeline report should be sent to the operator")
	}
	if !strings.Contains(report, "РЕЗУЛЬТАТ ПОИСКА") {
		t.Errorf("report should include the search digest, got %q", report)
	}
}

// blockingSummarizer never answers before the context expires.
type blockingSummarizer struct{}

func (blockingSummarizer) SummarizeSources(ctx context.Context, query, joinedText string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestHandleMessageSearchTimeoutSubstitutesNotice(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"YES","REACTION":["🔥"],"SEARCH":"YES","QUERY":"новости","MODEL":"SMART"}`
	f.search.results = []repo.SearchResult{
		{Link: "https://a.example", Snippet: "текст источника"},
	}
	f.pipeline.webSearch = NewWebSearchUsecase(f.search, &mockPageFetcher{pages: map[string]string{}}, blockingSummarizer{})
	f.pipeline.searchTimeout = 30 * time.Millisecond

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 8, 5, "что в новостях?"))

	for _, rec := range f.history.records {
		if rec.Source == domain.SourceWeb {
			t.Errorf("overrunning search must not persist a web record: %+v", rec)
		}
	}

	var report string
	for _, m := range f.notifier.messages {
		if strings.Contains(m, "РЕЗУЛЬТАТ АНАЛИЗА СООБЩЕНИЯ") {
			report = m
		}
	}
	if !strings.Contains(report, SearchTimedOut) {
		t.Errorf("report should carry the timeout notice, got %q", report)
	}

	if len(f.chat.sent) != 1 {
		t.Fatalf("reply should still be sent after the timeout, got %v", f.chat.sent)
	}
	if f.generator.lastReq == nil || !strings.Contains(f.generator.lastReq.SystemPrompt, SearchTimedOut) {
		t.Error("generation should see the timeout notice in place of the digest")
	}
}

func TestHandleMessageEmptyTextStopsAfterPersist(t *testing.T) {
	f := newPipelineFixture(t)

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 5, 5, "   "))

	if len(f.history.records) != 1 {
		t.Errorf("blank message should still be persisted, got %d records", len(f.history.records))
	}
	if len(f.history.annotated) != 0 {
		t.Errorf("blank message should not be classified, got %v", f.history.annotated)
	}
}

func TestHandleMessageModeratedOutStopsPipeline(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.toxic = true

	f.pipeline.HandleMessage(context.Background(), textMessage(-100, 6, 5, "токсичный текст"))

	if len(f.history.records) != 0 {
		t.Errorf("deleted message should not be persisted, got %v", f.history.records)
	}
	if len(f.chat.deleted) != 1 {
		t.Errorf("message should be deleted, got %v", f.chat.deleted)
	}
}

func TestHandleMessageBotOwnMessageSavedAsAssistant(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.interestRaw = `{"INTEREST":"NO","REACTION":["🤔"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`

	msg := &domain.IncomingMessage{
		ChatID:    -100,
		MessageID: 7,
		Sender:    &domain.Sender{ID: testBotID, FirstName: "Neurocat", IsBot: true},
		Text:      "моё собственное сообщение",
	}
	f.pipeline.HandleMessage(context.Background(), msg)

	if len(f.history.records) == 0 || f.history.records[0].Role != domain.RoleAssistant {
		t.Errorf("bot's own message should be stored as assistant, got %v", f.history.records)
	}
}
