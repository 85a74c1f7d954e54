package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// HandleCallbackQuery routes inline menu taps. Every branch answers the
// query so the client stops its spinner, then edits the menu message in
// place.
func HandleCallbackQuery(deps BotDeps, query *tgbotapi.CallbackQuery) {
	if _, err := deps.Bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		deps.Logger.Debug("Failed to answer callback query", zap.String("id", query.ID), zap.Error(err))
	}
	if query.Message == nil {
		return
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	unlock := deps.locks.lock(userID)
	defer unlock()

	user, err := ensureUser(deps, userID, query.From.LanguageCode)
	if err != nil {
		deps.Logger.Error("Failed to load user for callback", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, nil)
		return
	}
	lang := &user.Language
	data := query.Data

	switch {
	case data == cbMainMenu:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "main_menu"), mainMenuKeyboard(deps, lang))

	case data == cbSubmenuModes:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "select_chat_mode"), modesKeyboard(deps, lang))

	case data == cbSubmenuModels:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "select_model_menu"), modelsKeyboard(deps, lang))

	case data == cbSubmenuVoice:
		editMenu(deps, chatID, messageID, voiceSettingsText(deps, lang, user), voiceSettingsKeyboard(deps, lang, user))

	case data == cbSubmenuVoices:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "change_voice"), voicesKeyboard(deps, lang))

	case data == cbSubmenuVoiceLang:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "voice_recognition_lang"), voiceLanguagesKeyboard(deps, lang))

	case data == cbSubmenuLanguage:
		editMenu(deps, chatID, messageID, deps.I18n.T(lang, "language_settings_title"), languagesKeyboard(deps, lang))

	case data == cbSubmenuStreaming:
		editMenu(deps, chatID, messageID, streamingSettingsText(deps, lang, user), streamingKeyboard(deps, lang, user))

	case data == cbImageGenerate:
		if err := deps.Store.SetState(userID, storage.StateAwaitingImagePrompt); err != nil {
			deps.Logger.Error("Failed to arm image prompt state", zap.Int64("user_id", userID), zap.Error(err))
			sendGenericError(deps, chatID, lang)
			return
		}
		editText(deps, chatID, messageID, deps.I18n.T(lang, "image_prompt_request"))

	case data == cbVoiceToggle:
		enabled := !user.VoiceEnabled
		if err := deps.Store.SetVoiceEnabled(userID, enabled); err != nil {
			deps.Logger.Error("Failed to toggle voice replies", zap.Int64("user_id", userID), zap.Error(err))
			editText(deps, chatID, messageID, deps.I18n.T(lang, "voice_change_error"))
			return
		}
		key := "voice_disabled_success"
		if enabled {
			key = "voice_enabled_success"
		}
		editText(deps, chatID, messageID, deps.I18n.T(lang, key))

	case data == cbStreamToggle:
		enabled := !user.StreamingEnabled
		if err := deps.Store.SetStreaming(userID, enabled); err != nil {
			deps.Logger.Error("Failed to toggle streaming", zap.Int64("user_id", userID), zap.Error(err))
			editText(deps, chatID, messageID, deps.I18n.T(lang, "streaming_change_error"))
			return
		}
		key := "streaming_disabled_success"
		if enabled {
			key = "streaming_enabled_success"
		}
		editText(deps, chatID, messageID, deps.I18n.T(lang, key))

	case strings.HasPrefix(data, cbModePrefix):
		mode := strings.TrimPrefix(data, cbModePrefix)
		if !config.IsChatMode(mode) {
			deps.Logger.Warn("Unknown chat mode in callback", zap.String("mode", mode))
			return
		}
		// Mode switch clears the conversation context.
		if err := deps.Store.SetMode(userID, mode); err != nil {
			deps.Logger.Error("Failed to set chat mode", zap.Int64("user_id", userID), zap.Error(err))
			sendGenericError(deps, chatID, lang)
			return
		}
		editMenu(deps, chatID, messageID,
			deps.I18n.T(lang, "mode_changed", "Mode", deps.I18n.T(lang, "chat_mode_"+mode)),
			mainMenuKeyboard(deps, lang))

	case strings.HasPrefix(data, cbModelPrefix):
		model := strings.TrimPrefix(data, cbModelPrefix)
		if !deps.Config.HasModel(model) {
			deps.Logger.Warn("Unknown model in callback", zap.String("model", model))
			return
		}
		if err := deps.Store.SetModel(userID, model); err != nil {
			deps.Logger.Error("Failed to set model", zap.Int64("user_id", userID), zap.Error(err))
			sendGenericError(deps, chatID, lang)
			return
		}
		editMenu(deps, chatID, messageID,
			deps.I18n.T(lang, "model_changed", "Model", model),
			mainMenuKeyboard(deps, lang))

	case strings.HasPrefix(data, cbVoiceSetPrefix):
		voice := strings.TrimPrefix(data, cbVoiceSetPrefix)
		if !config.IsAvailableVoice(voice) {
			deps.Logger.Warn("Unknown voice in callback", zap.String("voice", voice))
			return
		}
		if err := deps.Store.SetVoice(userID, voice); err != nil {
			deps.Logger.Error("Failed to set voice", zap.Int64("user_id", userID), zap.Error(err))
			editText(deps, chatID, messageID, deps.I18n.T(lang, "voice_change_error"))
			return
		}
		editText(deps, chatID, messageID, deps.I18n.T(lang, "voice_changed_success", "Voice", voice))

	case strings.HasPrefix(data, cbVoiceLangPrefix):
		code := strings.TrimPrefix(data, cbVoiceLangPrefix)
		if !config.IsSupportedLanguage(code) {
			deps.Logger.Warn("Unknown voice language in callback", zap.String("code", code))
			return
		}
		// Explicit pick pins the recognition language.
		if err := deps.Store.SetVoiceLanguage(userID, code); err != nil {
			deps.Logger.Error("Failed to set voice language", zap.Int64("user_id", userID), zap.Error(err))
			editText(deps, chatID, messageID, deps.I18n.T(lang, "language_change_error"))
			return
		}
		editText(deps, chatID, messageID,
			deps.I18n.T(lang, "language_changed_success", "Language", strings.ToUpper(code)))

	case strings.HasPrefix(data, cbLangPrefix):
		code := strings.TrimPrefix(data, cbLangPrefix)
		if !config.IsSupportedLanguage(code) {
			deps.Logger.Warn("Unknown interface language in callback", zap.String("code", code))
			return
		}
		synced, err := deps.Store.SetLanguage(userID, code)
		if err != nil {
			deps.Logger.Error("Failed to set interface language", zap.Int64("user_id", userID), zap.Error(err))
			editText(deps, chatID, messageID, deps.I18n.T(lang, "language_change_interface_error"))
			return
		}
		text := deps.I18n.T(&code, "language_changed_interface",
			"Language", deps.I18n.T(&code, languageLabels[code]))
		if synced {
			text += "\n\n" + deps.I18n.T(&code, "voice_language_synced")
		}
		editText(deps, chatID, messageID, text)

	default:
		deps.Logger.Warn("Unhandled callback data", zap.String("data", data))
	}
}

func editMenu(deps BotDeps, chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	if _, err := deps.Bot.Request(edit); err != nil {
		deps.Logger.Debug("Failed to edit menu message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func editText(deps BotDeps, chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := deps.Bot.Request(edit); err != nil {
		deps.Logger.Debug("Failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
