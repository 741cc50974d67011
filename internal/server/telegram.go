package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/usecase"
	"github.com/anthropics/telegram-neurocat/telegram"
)

// chatQueueSize bounds the per-chat backlog. A chat flooding faster than
// the pipeline drains gets its overflow dropped, not the poll loop stalled.
const chatQueueSize = 32

// TelegramServer receives updates and dispatches them to per-chat workers
// so one slow chat never blocks the others. Messages within a chat stay
// ordered.
type TelegramServer struct {
	client    *telegram.Client
	pipeline  *usecase.PipelineUsecase
	moderator *usecase.ModeratorUsecase

	allowedGroups []int64
	ownerID       int64
	startMessage  string

	workersMu sync.Mutex
	workers   map[int64]chan *domain.IncomingMessage
	wg        sync.WaitGroup
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(
	client *telegram.Client,
	pipeline *usecase.PipelineUsecase,
	moderator *usecase.ModeratorUsecase,
	allowedGroups []int64,
	ownerID int64,
	startMessage string,
) *TelegramServer {
	return &TelegramServer{
		client:        client,
		pipeline:      pipeline,
		moderator:     moderator,
		allowedGroups: allowedGroups,
		ownerID:       ownerID,
		startMessage:  startMessage,
		workers:       make(map[int64]chan *domain.IncomingMessage),
	}
}

// Start sets the update handler and runs the long-poll loop. Blocks until
// Stop is called.
func (s *TelegramServer) Start() error {
	s.client.OnUpdate(s.handleUpdate)
	return s.client.Start()
}

// Stop stops polling and drains the chat workers.
func (s *TelegramServer) Stop() {
	s.client.Stop()

	s.workersMu.Lock()
	for _, ch := range s.workers {
		close(ch)
	}
	s.workers = make(map[int64]chan *domain.IncomingMessage)
	s.workersMu.Unlock()

	s.wg.Wait()
}

func (s *TelegramServer) handleUpdate(update *telegram.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if strings.HasPrefix(text, "/") && s.handleCommand(msg, text) {
		return
	}

	if !s.isAllowedGroup(msg.Chat.ID) {
		return
	}

	s.dispatch(toDomain(msg, text))
}

// dispatch hands the message to its chat's worker, spawning one on first
// contact with the chat.
func (s *TelegramServer) dispatch(msg *domain.IncomingMessage) {
	s.workersMu.Lock()
	ch, ok := s.workers[msg.ChatID]
	if !ok {
		ch = make(chan *domain.IncomingMessage, chatQueueSize)
		s.workers[msg.ChatID] = ch
		s.wg.Add(1)
		go s.runWorker(msg.ChatID, ch)
	}
	s.workersMu.Unlock()

	select {
	case ch <- msg:
	default:
		fmt.Printf("[Server] chat %d queue full, dropping message %d\n", msg.ChatID, msg.MessageID)
	}
}

func (s *TelegramServer) runWorker(chatID int64, ch <-chan *domain.IncomingMessage) {
	defer s.wg.Done()
	fmt.Printf("[Server] worker started for chat %d\n", chatID)
	for msg := range ch {
		s.pipeline.HandleMessage(context.Background(), msg)
	}
}

// handleCommand processes known bot commands. Returns false for anything
// else so ordinary slash-prefixed chatter still reaches the pipeline.
func (s *TelegramServer) handleCommand(msg *telegram.Message, text string) bool {
	ctx := context.Background()
	fields := strings.Fields(text)
	// Strip the optional @botname suffix.
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		if err := s.client.SendMessage(ctx, msg.Chat.ID, s.startMessage, 0); err != nil {
			fmt.Printf("[Server] failed to send start message: %v\n", err)
		}
		if s.ownerID != 0 && msg.Chat.ID != s.ownerID {
			notice := fmt.Sprintf("▶️ /start от %s (ID: %d) в чате %d",
				msg.From.DisplayName(), fromID(msg), msg.Chat.ID)
			if err := s.client.SendMessage(ctx, s.ownerID, notice, 0); err != nil {
				fmt.Printf("[Server] failed to notify owner: %v\n", err)
			}
		}
		return true

	case "/add_user":
		// Operator-only command.
		if msg.Chat.ID != s.ownerID {
			return true
		}
		if len(fields) < 2 {
			s.reply(ctx, msg, "Использование: /add_user <ID>")
			return true
		}
		userID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			s.reply(ctx, msg, "❌ ID должен быть числом")
			return true
		}
		added, err := s.moderator.AddTrustedUser(ctx, userID)
		switch {
		case err != nil:
			fmt.Printf("[Server] add_user failed: %v\n", err)
			s.reply(ctx, msg, "❌ Ошибка сохранения")
		case added:
			s.reply(ctx, msg, fmt.Sprintf("✅ Пользователь %d добавлен в доверенные", userID))
		default:
			s.reply(ctx, msg, fmt.Sprintf("ℹ️ Пользователь %d уже в доверенных", userID))
		}
		return true
	}

	return false
}

func (s *TelegramServer) reply(ctx context.Context, msg *telegram.Message, text string) {
	if err := s.client.SendMessage(ctx, msg.Chat.ID, text, msg.MessageID); err != nil {
		fmt.Printf("[Server] failed to reply: %v\n", err)
	}
}

func fromID(msg *telegram.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}

func (s *TelegramServer) isAllowedGroup(chatID int64) bool {
	for _, id := range s.allowedGroups {
		if chatID == id {
			return true
		}
	}
	return false
}

// toDomain converts a wire message into the pipeline's input shape.
func toDomain(msg *telegram.Message, text string) *domain.IncomingMessage {
	out := &domain.IncomingMessage{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		Text:        text,
		AutoForward: msg.AutoForward,
	}

	if msg.From != nil {
		out.Sender = &domain.Sender{
			ID:        msg.From.ID,
			FirstName: msg.From.FirstName,
			Username:  msg.From.Username,
			IsBot:     msg.From.IsBot,
		}
	}
	if msg.SenderChat != nil {
		out.SenderChat = &domain.SenderChat{
			ID:       msg.SenderChat.ID,
			Title:    msg.SenderChat.Title,
			Username: msg.SenderChat.Username,
			Type:     msg.SenderChat.Type,
		}
	}
	if msg.ForwardOrigin != nil && msg.ForwardOrigin.Chat != nil {
		out.ForwardFromChannel = true
	}
	if msg.ReplyTo != nil {
		target := &domain.ReplyTarget{MessageID: msg.ReplyTo.MessageID}
		if msg.ReplyTo.From != nil {
			target.Sender = &domain.Sender{
				ID:        msg.ReplyTo.From.ID,
				FirstName: msg.ReplyTo.From.FirstName,
				Username:  msg.ReplyTo.From.Username,
				IsBot:     msg.ReplyTo.From.IsBot,
			}
		}
		out.ReplyTo = target
	}

	if fileID := msg.LargestPhoto(); fileID != "" {
		out.Attachment = &domain.Attachment{Kind: domain.AttachmentPhoto, FileID: fileID}
	} else if msg.Document != nil {
		out.Attachment = &domain.Attachment{
			Kind:     domain.AttachmentDocument,
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
		}
	}

	return out
}
