package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// ensureUser loads the account, registering it with the starter balance on
// first contact. The interface language is picked from the Telegram client
// language when supported.
func ensureUser(deps BotDeps, userID int64, telegramLang string) (*storage.User, error) {
	user, err := deps.Store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	lang := detectLanguage(telegramLang, deps.Config.DefaultLanguage)
	return deps.Store.CreateUser(userID,
		deps.Config.Credits.InitialBalance,
		deps.Config.DefaultModel(),
		lang,
		deps.Config.Credits.ReferralCodeLength,
	)
}

// detectLanguage maps a Telegram language code like "ru-RU" onto a bundled
// locale, defaulting to fallback.
func detectLanguage(telegramLang, fallback string) string {
	if len(telegramLang) >= 2 {
		base := telegramLang[:2]
		switch base {
		case "ru", "uk", "be":
			return "ru"
		case "pl":
			return "pl"
		case "en":
			return "en"
		}
	}
	return fallback
}

func sendText(deps BotDeps, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := deps.Bot.Send(msg); err != nil {
		deps.Logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func sendMarkdown(deps BotDeps, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := deps.Bot.Send(msg); err != nil {
		// Markdown can fail on unbalanced markers in model output; resend plain.
		deps.Logger.Warn("Markdown send failed, retrying as plain text", zap.Int64("chat_id", chatID), zap.Error(err))
		sendText(deps, chatID, text)
	}
}

func sendChatAction(deps BotDeps, chatID int64, action string) {
	if _, err := deps.Bot.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		deps.Logger.Debug("Failed to send chat action", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func sendGenericError(deps BotDeps, chatID int64, lang *string) {
	sendText(deps, chatID, deps.I18n.T(lang, "error_generic"))
}

// userName picks a display name for greetings.
func userName(from *tgbotapi.User) string {
	if from == nil {
		return "friend"
	}
	if from.FirstName != "" {
		return from.FirstName
	}
	if from.UserName != "" {
		return from.UserName
	}
	return "friend"
}
