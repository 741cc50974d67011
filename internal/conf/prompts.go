package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt templates loaded from YAML
type PromptsConfig struct {
	Moderation   ModerationPrompts `yaml:"moderation"`
	Interest     InterestPrompts   `yaml:"interest"`
	Responder    ResponderPrompts  `yaml:"responder"`
	Search       SearchPrompts     `yaml:"search"`
	StartMessage string            `yaml:"start_message"`
}

// ModerationPrompts contains the toxicity classifier prompt
type ModerationPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// InterestPrompts contains the interest classifier prompt
type InterestPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// ResponderPrompts contains the reply generation prompts
type ResponderPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// SearchPrompts contains the web digest prompt template
type SearchPrompts struct {
	// DigestTemplate supports the {{query}} placeholder.
	DigestTemplate string `yaml:"digest_template"`
}

// LoadPromptsConfig loads prompt templates from a YAML file.
// An explicitly configured path that cannot be read is an error (fatal at
// startup); with no explicit path the standard locations are probed and
// compiled-in defaults are used as the final fallback.
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	explicit := configPath != ""

	paths := []string{configPath}
	if !explicit {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
			"/etc/telegram-neurocat/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		if explicit {
			return nil, fmt.Errorf("failed to read prompts config %s: %w", configPath, err)
		}
		fmt.Println("[Config] No prompts.yaml found, using defaults")
		return DefaultPromptsConfig(), nil
	}

	fmt.Printf("[Config] Loading prompts from: %s\n", loadedPath)

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Moderation.SystemPrompt == "" {
		c.Moderation.SystemPrompt = defaults.Moderation.SystemPrompt
	}
	if c.Interest.SystemPrompt == "" {
		c.Interest.SystemPrompt = defaults.Interest.SystemPrompt
	}
	if c.Responder.SystemPrompt == "" {
		c.Responder.SystemPrompt = defaults.Responder.SystemPrompt
	}
	if c.Search.DigestTemplate == "" {
		c.Search.DigestTemplate = defaults.Search.DigestTemplate
	}
	if c.StartMessage == "" {
		c.StartMessage = defaults.StartMessage
	}
}

// FormatDigestPrompt fills the digest template with the search query
func (c *PromptsConfig) FormatDigestPrompt(query string) string {
	return strings.ReplaceAll(c.Search.DigestTemplate, "{{query}}", query)
}

// DefaultPromptsConfig returns the default prompt templates
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Moderation: ModerationPrompts{
			SystemPrompt: `Ты — модератор группового чата. Определи, является ли сообщение токсичным.

Токсичное сообщение — это:
1. Прямые оскорбления участников чата
2. Угрозы, травля, разжигание ненависти
3. Спам, реклама, мошеннические ссылки

НЕ токсичное:
- Резкие, но аргументированные мнения
- Сарказм и шутки без перехода на личности
- Мат без адресата

Ответь строго одним словом: YES (токсичное) или NO (нормальное).`,
		},
		Interest: InterestPrompts{
			SystemPrompt: `Ты — фильтр сообщений группового чата для бота НейроКот.
Оцени сообщение и верни СТРОГО JSON-объект без пояснений и без Markdown-обёртки:

{"INTEREST":"YES|NO","REACTION":["эмодзи"],"SEARCH":"YES|NO","QUERY":"строка","MODEL":"SMART|FUN"}

Правила:
- INTEREST: YES, если на сообщение стоит ответить (вопрос, интересная тема,
  обращение к коту). Болтовня и междометия -> NO.
- REACTION: одна подходящая реакция из набора:
  👍 👎 ❤️ 🔥 🥰 😁 🤔 😢 😱 🤬 🎉 🙏
- SEARCH: YES, только если для ответа нужны свежие факты из интернета
  (новости, цены, погода, события). QUERY — поисковый запрос на русском.
- MODEL: SMART для сложных вопросов (наука, код, анализ), FUN для шуток и
  лёгкой болтовни.`,
		},
		Responder: ResponderPrompts{
			SystemPrompt: `Ты — НейроКот, саркастичный, но добрый кот-интеллектуал, живущий в групповом чате.

Правила поведения:
1. Отвечай коротко: 1-4 предложения, без лекций.
2. Пиши по-русски, живым разговорным языком, иногда вставляй кошачьи
   словечки (мяу, мур), но не в каждом сообщении.
3. Не упоминай, что ты языковая модель или бот.
4. Не повторяй текст сообщения, на которое отвечаешь.
5. Если в истории есть результаты веб-поиска — опирайся на них как на факты.`,
		},
		Search: SearchPrompts{
			DigestTemplate: `Ты — умный ассистент. У тебя есть результаты поиска по запросу: "{{query}}".

Сделай краткий конспект (3–4 предложения), используй только факты.
Не придумывай от себя, опирайся на текст.`,
		},
		StartMessage: `Мяу! 🐾 Я НейроКот — слежу за порядком в группе и иногда вставляю свои пять копеек.
Пиши в общий чат: на интересные сообщения отвечаю, на скучные ставлю реакции.`,
	}
}
