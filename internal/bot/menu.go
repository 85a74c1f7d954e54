package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// SendMainMenu posts the inline settings menu.
func SendMainMenu(deps BotDeps, chatID int64, lang *string) {
	msg := tgbotapi.NewMessage(chatID, deps.I18n.T(lang, "main_menu"))
	msg.ReplyMarkup = mainMenuKeyboard(deps, lang)
	if _, err := deps.Bot.Send(msg); err != nil {
		deps.Logger.Error("Failed to send main menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// voiceSettingsText renders the voice settings summary shown both by the
// /voice command and the voice submenu.
func voiceSettingsText(deps BotDeps, lang *string, user *storage.User) string {
	status := deps.I18n.T(lang, "voice_disabled")
	if user.VoiceEnabled {
		status = deps.I18n.T(lang, "voice_enabled")
	}

	var b strings.Builder
	b.WriteString(deps.I18n.T(lang, "voice_settings_title"))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "voice_status", "Status", status))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "current_voice", "Voice", user.Voice))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "recognition_language", "Language", strings.ToUpper(user.VoiceLanguage)))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "voice_costs"))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "voice_recognition_cost", "Cost", deps.Pricing.VoiceRecognition))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "voice_response_cost", "Cost", deps.Pricing.VoiceRoundTrip()))
	b.WriteString("\n\n")
	if user.VoiceEnabled {
		b.WriteString(deps.I18n.T(lang, "voice_credit_warning", "Cost", deps.Pricing.VoiceRoundTrip()))
		b.WriteString("\n\n")
	}
	b.WriteString(deps.I18n.T(lang, "voice_test_hint"))
	return b.String()
}

// HandleVoiceSettings serves the /voice command.
func HandleVoiceSettings(deps BotDeps, message *tgbotapi.Message, user *storage.User) {
	lang := &user.Language
	msg := tgbotapi.NewMessage(message.Chat.ID, voiceSettingsText(deps, lang, user))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = voiceSettingsKeyboard(deps, lang, user)
	if _, err := deps.Bot.Send(msg); err != nil {
		deps.Logger.Error("Failed to send voice settings", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}

// streamingSettingsText renders the streaming preference page.
func streamingSettingsText(deps BotDeps, lang *string, user *storage.User) string {
	status := deps.I18n.T(lang, "streaming_disabled_status")
	if user.StreamingEnabled {
		status = deps.I18n.T(lang, "streaming_enabled_status")
	}

	var b strings.Builder
	b.WriteString(deps.I18n.T(lang, "streaming_settings_title"))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "streaming_status", "Status", status))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "streaming_description"))
	return b.String()
}
