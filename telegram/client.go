package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is a Telegram Bot API client using HTTP long polling.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	onUpdate func(*Update)
	ctx      context.Context
	cancel   context.CancelFunc

	pollTimeout time.Duration
}

// NewClient creates a new Telegram client
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		pollTimeout: 30 * time.Second,
	}
}

// Update is one entry from getUpdates
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is a received Telegram message
type Message struct {
	MessageID     int64       `json:"message_id"`
	Chat          *Chat       `json:"chat,omitempty"`
	From          *User       `json:"from,omitempty"`
	SenderChat    *Chat       `json:"sender_chat,omitempty"`
	ReplyTo       *Message    `json:"reply_to_message,omitempty"`
	Text          string      `json:"text,omitempty"`
	Caption       string      `json:"caption,omitempty"`
	Photo         []PhotoSize `json:"photo,omitempty"`
	Document      *Document   `json:"document,omitempty"`
	AutoForward   bool        `json:"is_automatic_forward,omitempty"`
	ForwardOrigin *struct {
		Type string `json:"type"`
		Chat *Chat  `json:"chat,omitempty"`
	} `json:"forward_origin,omitempty"`
}

// Chat identifies a chat or channel
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type,omitempty"` // private|group|supergroup|channel
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// User identifies an account
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// PhotoSize is one rendition of a photo attachment
type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// Document is a generic file attachment
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// OnUpdate sets the update handler
func (c *Client) OnUpdate(handler func(*Update)) {
	c.onUpdate = handler
}

// Start runs the long polling loop (blocking)
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	fmt.Println("[Telegram] Starting long polling...")

	var offset int64
	for {
		select {
		case <-c.ctx.Done():
			return nil
		default:
		}

		updates, next, err := c.getUpdates(c.ctx, offset)
		if err != nil {
			if c.ctx.Err() != nil {
				return nil
			}
			fmt.Printf("[Telegram] getUpdates error: %v\n", err)
			time.Sleep(3 * time.Second)
			continue
		}
		offset = next

		for _, u := range updates {
			if c.onUpdate != nil {
				c.onUpdate(&u)
			}
		}
	}
}

// Stop stops the polling loop
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

type getMeResponse struct {
	OK     bool `json:"ok"`
	Result User `json:"result"`
}

// GetMe returns the bot's own account
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	raw, err := c.get(ctx, fmt.Sprintf("%s/bot%s/getMe", c.baseURL, c.token))
	if err != nil {
		return nil, err
	}
	var out getMeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode getMe: %w", err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram getMe: ok=false")
	}
	return &out.Result, nil
}

type getUpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]Update, int64, error) {
	secs := int(c.pollTimeout.Seconds())
	u := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d", c.baseURL, c.token, secs)
	if offset > 0 {
		u += fmt.Sprintf("&offset=%d", offset)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.pollTimeout+5*time.Second)
	defer cancel()

	raw, err := c.get(reqCtx, u)
	if err != nil {
		return nil, offset, err
	}

	var out getUpdatesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, offset, fmt.Errorf("decode getUpdates: %w", err)
	}
	if !out.OK {
		return nil, offset, fmt.Errorf("telegram getUpdates: ok=false")
	}

	next := offset
	for _, u := range out.Result {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return out.Result, next, nil
}

// SendMessage sends a text message; replyTo > 0 makes it a reply
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if replyTo > 0 {
		body["reply_to_message_id"] = replyTo
		body["allow_sending_without_reply"] = true
	}
	return c.post(ctx, "sendMessage", body)
}

// DeleteMessage removes a message from a chat
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.post(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

// SetMessageReaction attaches a single emoji reaction
func (c *Client) SetMessageReaction(ctx context.Context, chatID, messageID int64, emoji string) error {
	return c.post(ctx, "setMessageReaction", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"reaction": []map[string]string{
			{"type": "emoji", "emoji": emoji},
		},
	})
}

type getFileResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// DownloadFile resolves a file_id and downloads its content to destPath
func (c *Client) DownloadFile(ctx context.Context, fileID, destPath string) error {
	raw, err := c.get(ctx, fmt.Sprintf("%s/bot%s/getFile?file_id=%s",
		c.baseURL, c.token, url.QueryEscape(fileID)))
	if err != nil {
		return err
	}
	var out getFileResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode getFile: %w", err)
	}
	if !out.OK || out.Result.FilePath == "" {
		return fmt.Errorf("telegram getFile: missing file_path")
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s",
		c.baseURL, c.token, strings.TrimLeft(out.Result.FilePath, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram download: http %d", resp.StatusCode)
	}

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return f.Close()
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

type okResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (c *Client) post(ctx context.Context, method string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out okResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: %s", method, out.Description)
	}
	return nil
}

// LargestPhoto returns the file id of the highest-resolution rendition.
func (m *Message) LargestPhoto() string {
	if len(m.Photo) == 0 {
		return ""
	}
	best := m.Photo[0]
	for _, p := range m.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best.FileID
}

// DisplayName builds a human-readable name for a user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case u.Username != "":
		return "@" + u.Username
	default:
		return ""
	}
}
