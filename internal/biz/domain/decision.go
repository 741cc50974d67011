package domain

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ModelTier selects which capability/cost level answers a message.
type ModelTier string

const (
	ModelSmart ModelTier = "SMART"
	ModelFun   ModelTier = "FUN"
)

// AllowedReactions is the set of reaction emoji Telegram accepts from bots.
var AllowedReactions = []string{
	"👍", "👎", "❤️", "🔥", "🥰", "😁", "🤔", "😢", "😱", "🤬", "🎉", "🙏",
}

// FallbackReaction is used when the classifier proposes nothing usable.
const FallbackReaction = "🤔"

// Decision is the per-message routing decision produced by the interest
// classifier. It is never persisted as a whole; only its derived effects
// (annotation, reaction, reply) are.
type Decision struct {
	Interest bool
	Reaction string // single emoji from AllowedReactions, never empty
	Search   bool
	Query    string
	Model    ModelTier
}

// decisionWire is the JSON shape the remote classifier is asked to emit.
type decisionWire struct {
	Interest string   `json:"INTEREST"`
	Reaction []string `json:"REACTION"`
	Search   string   `json:"SEARCH"`
	Query    string   `json:"QUERY"`
	Model    string   `json:"MODEL"`
}

var photoPrefixRe = regexp.MustCompile(`(?i)^📷\s*Фото\.\s*Подпись:\s*`)

// StripPhotoPrefix removes the photo-caption marker prepended to photo
// messages before they are classified.
func StripPhotoPrefix(text string) string {
	return strings.TrimSpace(photoPrefixRe.ReplaceAllString(text, ""))
}

// DecodeDecision turns the classifier's raw text into a fully-populated
// Decision. It is total: malformed or partial payloads degrade to the
// defaults (not interesting, fallback reaction, no search) with the model
// tier recomputed by the local heuristic. A malformed payload never
// propagates past this function.
func DecodeDecision(raw, originalText string) Decision {
	fallback := Decision{
		Interest: false,
		Reaction: FallbackReaction,
		Search:   false,
		Query:    "",
		Model:    PickModel(originalText),
	}

	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimSpace(strings.Trim(clean, "`"))
		if len(clean) >= 4 && strings.EqualFold(clean[:4], "json") {
			clean = strings.TrimSpace(clean[4:])
		}
	}

	var wire decisionWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return fallback
	}

	d := Decision{
		Interest: wire.Interest == "YES",
		Search:   wire.Search == "YES",
		Query:    wire.Query,
	}

	// Single-reaction contract: keep the first proposed reaction that
	// survives the allow-list filter.
	d.Reaction = FallbackReaction
	for _, r := range wire.Reaction {
		if reactionAllowed(r) {
			d.Reaction = r
			break
		}
	}

	if d.Search && d.Query == "" {
		d.Query = StripPhotoPrefix(originalText)
	}

	switch ModelTier(wire.Model) {
	case ModelSmart, ModelFun:
		d.Model = ModelTier(wire.Model)
	default:
		d.Model = PickModel(originalText)
	}

	return d
}

func reactionAllowed(r string) bool {
	for _, a := range AllowedReactions {
		if r == a {
			return true
		}
	}
	return false
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var humourMarkers = []string{
	"))", ")))", "😂", "🤣", "😅", "ахах", "лол", "кек", "шутк", "дурач",
}

var complexKeywords = []string{
	"почему", "как работает", "объясни", "докаж", "теория", "алгоритм", "архитектур",
	"оптимизац", "регресс", "градиент", "инференс", "обучен", "распознава", "генерац",
	"nlp", "llm", "байес", "энтроп", "корреляц", "каузаль", "причин", "следств",
	"сравни", "оцен", "план", "стратег", "дизайн", "proof", "theorem", "complexit",
	"np-", "p=", "асимптот", "математ",
}

var codeMarkers = []string{
	"```", "def ", "class ", "SELECT ", "INSERT ", "http://", "https://",
}

// PickModel chooses a tier from message style and complexity. It is a
// deterministic total fallback, used only when the remote classifier did
// not return a valid MODEL.
func PickModel(text string) ModelTier {
	if text == "" {
		return ModelFun
	}

	t := StripPhotoPrefix(text)
	low := strings.ToLower(t)

	for _, m := range humourMarkers {
		if strings.Contains(low, m) {
			return ModelFun
		}
	}

	words := wordRe.FindAllString(low, -1)
	if len(words) <= 6 {
		return ModelFun
	}

	hasComplexKw := false
	for _, k := range complexKeywords {
		if strings.Contains(low, k) {
			hasComplexKw = true
			break
		}
	}
	hasQuestion := strings.Contains(t, "?")

	if len(words) > 20 && (hasComplexKw || hasQuestion) {
		return ModelSmart
	}

	for _, m := range codeMarkers {
		if strings.Contains(t, m) {
			return ModelSmart
		}
	}

	return ModelFun
}
