package domain

import (
	"strings"
	"testing"
)

func TestDecodeDecisionPlainJSON(t *testing.T) {
	raw := `{"INTEREST":"YES","REACTION":["🔥"],"SEARCH":"YES","QUERY":"погода в Москве","MODEL":"SMART"}`
	d := DecodeDecision(raw, "какая погода в Москве?")

	if !d.Interest {
		t.Error("Expected Interest=true")
	}
	if d.Reaction != "🔥" {
		t.Errorf("Expected 🔥, got %s", d.Reaction)
	}
	if !d.Search || d.Query != "погода в Москве" {
		t.Errorf("Unexpected search fields: %v %q", d.Search, d.Query)
	}
	if d.Model != ModelSmart {
		t.Errorf("Expected SMART, got %s", d.Model)
	}
}

func TestDecodeDecisionFencedJSON(t *testing.T) {
	raw := "```json\n{\"INTEREST\":\"YES\",\"REACTION\":[\"👍\"],\"SEARCH\":\"NO\",\"QUERY\":\"\",\"MODEL\":\"FUN\"}\n```"
	d := DecodeDecision(raw, "привет")

	if !d.Interest {
		t.Error("Expected Interest=true after unwrapping the code fence")
	}
	if d.Reaction != "👍" {
		t.Errorf("Expected 👍, got %s", d.Reaction)
	}
}

func TestDecodeDecisionMalformed(t *testing.T) {
	cases := []string{
		"",
		"not json at all",
		`{"INTEREST":"YES"`, // truncated
		`[1, 2, 3]`,         // not an object
		"```\ngarbage\n```",
	}

	for _, raw := range cases {
		d := DecodeDecision(raw, "короткий текст")
		if d.Interest {
			t.Errorf("raw=%q: expected Interest=false", raw)
		}
		if d.Reaction != FallbackReaction {
			t.Errorf("raw=%q: expected fallback reaction, got %s", raw, d.Reaction)
		}
		if d.Search {
			t.Errorf("raw=%q: expected Search=false", raw)
		}
		if d.Model != PickModel("короткий текст") {
			t.Errorf("raw=%q: expected heuristic model, got %s", raw, d.Model)
		}
	}
}

func TestDecodeDecisionReactionFiltering(t *testing.T) {
	// Disallowed reactions are dropped; the first allowed one wins.
	raw := `{"INTEREST":"NO","REACTION":["💀","🚀","❤️","🔥"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`
	d := DecodeDecision(raw, "текст")
	if d.Reaction != "❤️" {
		t.Errorf("Expected ❤️, got %s", d.Reaction)
	}

	// Nothing survives filtering -> fallback.
	raw = `{"INTEREST":"NO","REACTION":["💀"],"SEARCH":"NO","QUERY":"","MODEL":"FUN"}`
	d = DecodeDecision(raw, "текст")
	if d.Reaction != FallbackReaction {
		t.Errorf("Expected fallback reaction, got %s", d.Reaction)
	}
}

func TestDecodeDecisionEmptyQueryBackfill(t *testing.T) {
	raw := `{"INTEREST":"YES","REACTION":["🤔"],"SEARCH":"YES","QUERY":"","MODEL":"FUN"}`
	d := DecodeDecision(raw, "📷 Фото. Подпись: что это за здание?")
	if d.Query != "что это за здание?" {
		t.Errorf("Expected stripped caption as query, got %q", d.Query)
	}
}

func TestDecodeDecisionInvalidModel(t *testing.T) {
	raw := `{"INTEREST":"NO","REACTION":["🤔"],"SEARCH":"NO","QUERY":"","MODEL":"GENIUS"}`
	long := strings.Repeat("почему ", 25)
	d := DecodeDecision(raw, long)
	if d.Model != PickModel(long) {
		t.Errorf("Expected heuristic model for invalid tier, got %s", d.Model)
	}
}

func TestPickModelDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"привет",
		strings.Repeat("слово ", 30) + "?",
		"объясни как работает градиентный спуск в нейронных сетях и почему он сходится к локальному минимуму",
	}
	for _, in := range inputs {
		first := PickModel(in)
		for i := 0; i < 5; i++ {
			if got := PickModel(in); got != first {
				t.Fatalf("PickModel(%q) not deterministic: %s then %s", in, first, got)
			}
		}
	}
}

func TestPickModelCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ModelTier
	}{
		{"empty", "", ModelFun},
		{"short", "как дела", ModelFun},
		{"six words", "раз два три четыре пять шесть", ModelFun},
		{"humour marker", "да ладно))) " + strings.Repeat("слово ", 25), ModelFun},
		{"laughter word", "ахах ну ты дал, " + strings.Repeat("слово ", 25), ModelFun},
		{
			"long question",
			"скажи пожалуйста а вот если взять и посмотреть на это с другой стороны то что в итоге получится из этого всего и как это понять?",
			ModelSmart,
		},
		{
			"long with keyword",
			"расскажи про алгоритм который используется для сортировки больших массивов данных на распределенных системах и кластерах серверов",
			ModelSmart,
		},
		{"code block", "посмотри вот этот фрагмент кода ```x = 1``` и скажи",
			ModelSmart},
		{"url", "глянь статью https://example.com/post про архитектуру сервиса",
			ModelSmart},
		{"long statement no markers", strings.Repeat("слово ", 25), ModelFun},
	}

	for _, tt := range tests {
		if got := PickModel(tt.text); got != tt.want {
			t.Errorf("%s: PickModel(%q) = %s, want %s", tt.name, tt.text, got, tt.want)
		}
	}
}

func TestStripPhotoPrefix(t *testing.T) {
	if got := StripPhotoPrefix("📷 Фото. Подпись: привет"); got != "привет" {
		t.Errorf("got %q", got)
	}
	if got := StripPhotoPrefix("обычный текст"); got != "обычный текст" {
		t.Errorf("got %q", got)
	}
}

func TestTrustListAddUserIdempotent(t *testing.T) {
	list := &TrustList{}
	if !list.AddUser(42) {
		t.Error("first AddUser should report a change")
	}
	if list.AddUser(42) {
		t.Error("second AddUser should be a no-op")
	}
	if len(list.Users) != 1 || !list.HasUser(42) {
		t.Errorf("unexpected list state: %+v", list.Users)
	}
}

func TestIsChannelOrigin(t *testing.T) {
	tests := []struct {
		name string
		msg  IncomingMessage
		want bool
	}{
		{"plain user", IncomingMessage{Sender: &Sender{ID: 1}}, false},
		{"auto forward", IncomingMessage{AutoForward: true}, true},
		{"forward origin", IncomingMessage{ForwardFromChannel: true}, true},
		{"channel sender chat", IncomingMessage{SenderChat: &SenderChat{ID: -100, Type: "channel"}}, true},
		{"group sender chat", IncomingMessage{SenderChat: &SenderChat{ID: -100, Type: "supergroup"}}, false},
	}
	for _, tt := range tests {
		if got := tt.msg.IsChannelOrigin(); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
