package domain

import "time"

// Role classifies a history record within the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleVision    Role = "vision" // photo analysis text, context only
)

// Record sources distinguish organic chat messages from injected blocks.
const (
	SourceChat   = "chat"
	SourceWeb    = "web"
	SourceClaude = "claude"
)

// BotUserID is the sentinel user id for records authored by the bot itself.
const BotUserID int64 = 0

// BotName is the display name stored on bot-authored records.
const BotName = "Neurocat"

// Record is one row of the per-chat history log.
// It is inserted exactly once and may be annotated exactly once afterward
// (Interesting + Reaction); no other field changes after insert.
type Record struct {
	ChatID        int64
	MessageID     int64
	UserID        int64
	FirstName     string
	Role          Role
	Created       time.Time
	Content       string
	ReplyToUserID int64  // 0 = not a reply; quota accounting only
	Reaction      string // set post-hoc, empty until annotated
	Interesting   *bool  // nil until annotated
	Source        string // chat | web | claude
}

// AttachmentKind tags the non-text payload of an incoming message.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is a non-text payload carried by an incoming message.
type Attachment struct {
	Kind     AttachmentKind
	FileID   string // platform download reference
	FileName string // documents only
}

// Sender identifies the human (or bot) account behind a message.
type Sender struct {
	ID        int64
	FirstName string
	Username  string // without the @ prefix
	IsBot     bool
}

// SenderChat identifies a chat posting on its own behalf (channels,
// anonymous group admins).
type SenderChat struct {
	ID       int64
	Title    string
	Username string
	Type     string // "channel", "supergroup", ...
}

// ReplyTarget points at the message this one replies to.
type ReplyTarget struct {
	MessageID int64
	Sender    *Sender
}

// IncomingMessage is the platform event the pipeline consumes.
type IncomingMessage struct {
	ChatID     int64
	MessageID  int64
	Sender     *Sender
	SenderChat *SenderChat
	Text       string // text or caption
	Attachment *Attachment
	ReplyTo    *ReplyTarget

	// Forward metadata, used for the channel-origin override.
	AutoForward        bool
	ForwardFromChannel bool
}

// IsChannelOrigin reports whether the message was authored by or forwarded
// from a broadcast channel rather than a human account.
func (m *IncomingMessage) IsChannelOrigin() bool {
	if m.AutoForward || m.ForwardFromChannel {
		return true
	}
	return m.SenderChat != nil && m.SenderChat.Type == "channel"
}

// SenderName resolves a display name for history records: the sender's
// first name, the sender-chat title for channel posts, or "anon".
func (m *IncomingMessage) SenderName() string {
	if m.Sender != nil && m.Sender.FirstName != "" {
		return m.Sender.FirstName
	}
	if m.SenderChat != nil && m.SenderChat.Title != "" {
		return m.SenderChat.Title
	}
	return "anon"
}

// SenderID returns the sender's user id, or 0 for channel posts.
func (m *IncomingMessage) SenderID() int64 {
	if m.Sender == nil {
		return 0
	}
	return m.Sender.ID
}

// IsReplyToBot reports whether this message replies to one of the bot's
// own messages.
func (m *IncomingMessage) IsReplyToBot(botID int64) bool {
	return m.ReplyTo != nil && m.ReplyTo.Sender != nil &&
		m.ReplyTo.Sender.IsBot && m.ReplyTo.Sender.ID == botID
}

// HasAttachment reports whether the message carries a photo or document.
func (m *IncomingMessage) HasAttachment() bool {
	return m.Attachment != nil
}
