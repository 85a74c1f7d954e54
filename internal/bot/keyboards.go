package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// Callback data tokens. Settings identifiers are short stable keys that fit
// the 64-byte callback data limit directly.
const (
	cbMainMenu         = "main_menu"
	cbSubmenuModes     = "submenu_modes"
	cbSubmenuModels    = "submenu_models"
	cbSubmenuVoice     = "submenu_voice"
	cbSubmenuVoices    = "submenu_voices"
	cbSubmenuVoiceLang = "submenu_voicelangs"
	cbSubmenuLanguage  = "submenu_language"
	cbSubmenuStreaming = "submenu_streaming"
	cbImageGenerate    = "image_generate"
	cbVoiceToggle      = "voice_toggle"
	cbStreamToggle     = "stream_toggle"
	cbModePrefix       = "mode_"
	cbModelPrefix      = "model_"
	cbVoiceSetPrefix   = "voice_set_"
	cbVoiceLangPrefix  = "voicelang_"
	cbLangPrefix       = "lang_"
)

var languageLabels = map[string]string{
	"ru": "lang_russian",
	"en": "lang_english",
	"pl": "lang_polish",
}

func mainMenuKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_chat_mode"), cbSubmenuModes),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_select_model"), cbSubmenuModels),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_voice"), cbSubmenuVoice),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_generate_image"), cbImageGenerate),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_language"), cbSubmenuLanguage),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "menu_streaming"), cbSubmenuStreaming),
		),
	)
}

func modesKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.ChatModeKeys)+1)
	for _, key := range config.ChatModeKeys {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "chat_mode_"+key), cbModePrefix+key),
		))
	}
	rows = append(rows, backRow(deps, lang))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modelsKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(deps.Config.Models)+1)
	for _, m := range deps.Config.Models {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(m.Name, cbModelPrefix+m.ID),
		))
	}
	rows = append(rows, backRow(deps, lang))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func voiceSettingsKeyboard(deps BotDeps, lang *string, user *storage.User) tgbotapi.InlineKeyboardMarkup {
	toggleKey := "voice_toggle_enable"
	if user.VoiceEnabled {
		toggleKey = "voice_toggle_disable"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, toggleKey), cbVoiceToggle),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "change_voice"), cbSubmenuVoices),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "voice_recognition_lang"), cbSubmenuVoiceLang),
		),
		backRow(deps, lang),
	)
}

func voicesKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.AvailableVoices)+1)
	for _, v := range config.AvailableVoices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(v, cbVoiceSetPrefix+v),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "back"), cbSubmenuVoice),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func voiceLanguagesKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.SupportedLanguages)+1)
	for _, code := range config.SupportedLanguages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, languageLabels[code]), cbVoiceLangPrefix+code),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "back"), cbSubmenuVoice),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func languagesKeyboard(deps BotDeps, lang *string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(config.SupportedLanguages)+1)
	for _, code := range config.SupportedLanguages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, languageLabels[code]), cbLangPrefix+code),
		))
	}
	rows = append(rows, backRow(deps, lang))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func streamingKeyboard(deps BotDeps, lang *string, user *storage.User) tgbotapi.InlineKeyboardMarkup {
	toggleKey := "streaming_toggle_enable"
	if user.StreamingEnabled {
		toggleKey = "streaming_toggle_disable"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, toggleKey), cbStreamToggle),
		),
		backRow(deps, lang),
	)
}

func backRow(deps BotDeps, lang *string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(deps.I18n.T(lang, "back_to_menu"), cbMainMenu),
	)
}
