package config

// Chat modes are fixed product behavior rather than deployment configuration,
// so they live in code instead of the TOML file.

const (
	ModeAssistant  = "assistant"
	ModeJoker      = "joker"
	ModeTranslator = "translator"
)

// ChatModeKeys lists the selectable modes in menu order.
var ChatModeKeys = []string{ModeAssistant, ModeJoker, ModeTranslator}

var systemPrompts = map[string]map[string]string{
	ModeAssistant: {
		"en": "You are a helpful assistant. Answer clearly and to the point.",
		"ru": "Ты — полезный ассистент. Отвечай чётко и по делу.",
		"pl": "Jesteś pomocnym asystentem. Odpowiadaj jasno i na temat.",
	},
	ModeJoker: {
		"en": "You are a witty comedian. Answer every question with humor and a punchline.",
		"ru": "Ты — остроумный комик. Отвечай на любой вопрос с юмором и шуткой.",
		"pl": "Jesteś dowcipnym komikiem. Odpowiadaj na każde pytanie z humorem i puentą.",
	},
	ModeTranslator: {
		"en": "You are a professional translator. Translate the user's message between Russian and English, keeping tone and meaning.",
		"ru": "Ты — профессиональный переводчик. Переводи сообщения пользователя между русским и английским, сохраняя тон и смысл.",
		"pl": "Jesteś profesjonalnym tłumaczem. Tłumacz wiadomości użytkownika między rosyjskim a angielskim, zachowując ton i sens.",
	},
}

// SystemPrompt resolves the system prompt for a chat mode in the given
// interface language, falling back to the assistant prompt in English
// for unknown keys.
func SystemPrompt(modeKey, lang string) string {
	prompts, ok := systemPrompts[modeKey]
	if !ok {
		prompts = systemPrompts[ModeAssistant]
	}
	if p, ok := prompts[lang]; ok {
		return p
	}
	return prompts["en"]
}

// IsChatMode reports whether key names a selectable chat mode.
func IsChatMode(key string) bool {
	_, ok := systemPrompts[key]
	return ok
}

// SupportedLanguages lists the interface languages with bundled locales.
var SupportedLanguages = []string{"en", "ru", "pl"}

func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// AvailableVoices lists the speech synthesis voice ids in menu order.
var AvailableVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

func IsAvailableVoice(id string) bool {
	for _, v := range AvailableVoices {
		if v == id {
			return true
		}
	}
	return false
}
