package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// OpenAI configuration (classification, moderation, vision, summaries)
	OpenAI OpenAIConfig

	// Anthropic configuration (reply generation)
	Anthropic AnthropicConfig

	// Limits configuration
	Limits LimitsConfig

	// Storage paths
	Storage StorageConfig

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// TimezoneOffsetHours shifts the injected current-time fact relative
	// to server time.
	TimezoneOffsetHours int

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram Bot API configuration
type TelegramConfig struct {
	BotToken      string
	BaseURL       string
	OwnerID       int64   // operator chat for audit/report messages
	AllowedGroups []int64 // chats the pipeline processes

	// System accounts exempt from reply quotas (Telegram service accounts,
	// anonymous group admins).
	SystemUserIDs []int64

	// ChannelBotID posts on behalf of linked channels; its messages are
	// quota-exempt when the sender-chat is a trusted channel.
	ChannelBotID    int64
	TrustedChannels []int64
}

// OpenAIConfig contains OpenAI configuration
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AnthropicConfig contains Anthropic configuration
type AnthropicConfig struct {
	APIKey string
}

// LimitsConfig contains quota configuration
type LimitsConfig struct {
	UserDailyLimit int // max assistant replies per user per chat per day
	BotDailyLimit  int // telemetry only, never gates generation
}

// StorageConfig contains persistence paths
type StorageConfig struct {
	HistoryDBPath string
	TrustFilePath string
	PhotoDir      string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	historyDBPath := os.Getenv("HISTORY_DB_PATH")
	if historyDBPath == "" {
		wd, _ := os.Getwd()
		historyDBPath = filepath.Join(wd, "group_history.db")
	}

	trustFilePath := os.Getenv("TRUSTED_USERS_PATH")
	if trustFilePath == "" {
		trustFilePath = filepath.Join("data", "trusted_users.json")
	}

	photoDir := os.Getenv("PHOTO_DIR")
	if photoDir == "" {
		wd, _ := os.Getwd()
		photoDir = filepath.Join(wd, "channel_pics")
	}

	openaiModel := os.Getenv("OPENAI_MODEL")
	if openaiModel == "" {
		openaiModel = "gpt-4o-mini"
	}

	baseURL := os.Getenv("TELEGRAM_API_URL")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	userDailyLimit := envInt("USER_DAILY_LIMIT", 30)
	botDailyLimit := envInt("BOT_DAILY_LIMIT", 10)
	tzOffset := envInt("TIMEZONE_OFFSET_HOURS", 0)

	// Telegram service account + GroupAnonymousBot
	systemUserIDs := envInt64List("SYSTEM_USER_IDS", []int64{777000, 1087968824})

	channelBotID := int64(envInt("CHANNEL_BOT_ID", 136817688))

	promptsConfig, err := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))
	if err != nil {
		// Leave Prompts nil; Validate reports it as a startup error.
		fmt.Printf("[Config] %v\n", err)
	}

	return &Config{
		Telegram: TelegramConfig{
			BotToken:        os.Getenv("BOT_TOKEN"),
			BaseURL:         baseURL,
			OwnerID:         envInt64("OWNER_ID", 0),
			AllowedGroups:   envInt64List("ALLOWED_GROUPS", nil),
			SystemUserIDs:   systemUserIDs,
			ChannelBotID:    channelBotID,
			TrustedChannels: envInt64List("TRUSTED_CHANNELS", nil),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  openaiModel,
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		Limits: LimitsConfig{
			UserDailyLimit: userDailyLimit,
			BotDailyLimit:  botDailyLimit,
		},
		Storage: StorageConfig{
			HistoryDBPath: historyDBPath,
			TrustFilePath: trustFilePath,
			PhotoDir:      photoDir,
		},
		Prompts:             promptsConfig,
		TimezoneOffsetHours: tzOffset,
		Debug:               os.Getenv("DEBUG") == "true",
	}
}

// LocalTime returns the bot's local time string for prompt injection,
// shifted by the configured timezone offset.
func (c *Config) LocalTime() string {
	now := time.Now().Add(time.Duration(c.TimezoneOffsetHours) * time.Hour)
	return now.Format("02.01.2006 15:04")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return &ConfigError{Field: "BOT_TOKEN", Message: "required"}
	}
	if c.OpenAI.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
	}
	if c.Anthropic.APIKey == "" {
		return &ConfigError{Field: "ANTHROPIC_API_KEY", Message: "required"}
	}
	if c.Telegram.OwnerID == 0 {
		return &ConfigError{Field: "OWNER_ID", Message: "required"}
	}
	if c.Prompts == nil {
		return &ConfigError{Field: "PROMPTS_CONFIG_PATH", Message: "prompts config could not be loaded"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt64List(key string, def []int64) []int64 {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	var out []int64
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if parsed, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, parsed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
