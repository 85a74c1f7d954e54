package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// HandleUpdate is the per-update entry point, one goroutine each. A panic in
// a handler is recovered here: admins get the stack trace, the user a
// generic error, and the poll loop never notices.
func HandleUpdate(update tgbotapi.Update, deps BotDeps) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			deps.Logger.Error("Recovered from panic in update handler",
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
			detail := fmt.Sprintf("PANIC: %v\n\n%s", r, stack)
			if len(detail) > 4000 {
				detail = detail[:4000]
			}
			for _, adminID := range deps.Auth.AdminIDs() {
				if _, err := deps.Bot.Send(tgbotapi.NewMessage(adminID, detail)); err != nil {
					deps.Logger.Error("Failed to forward panic to admin", zap.Int64("admin_id", adminID), zap.Error(err))
				}
			}
			if chatID := updateChatID(update); chatID != 0 {
				sendGenericError(deps, chatID, nil)
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		HandleCallbackQuery(deps, update.CallbackQuery)
	case update.Message != nil:
		HandleMessage(update.Message, deps)
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// HandleMessage dispatches commands, then routes plain text and voice notes
// by the persisted interaction state.
func HandleMessage(message *tgbotapi.Message, deps BotDeps) {
	if message.From == nil {
		return
	}
	ctx := context.Background()
	userID := message.From.ID
	chatID := message.Chat.ID

	// Updates from one user run strictly in turn, so a turn's balance
	// check and debit never interleave with another of their messages.
	unlock := deps.locks.lock(userID)
	defer unlock()

	if message.IsCommand() {
		handleCommand(message, deps)
		return
	}

	user, err := ensureUser(deps, userID, message.From.LanguageCode)
	if err != nil {
		deps.Logger.Error("Failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, nil)
		return
	}

	if message.Voice != nil {
		HandleVoiceMessage(ctx, deps, user, chatID, message.Voice)
		return
	}
	if message.Text == "" {
		return
	}

	switch user.State {
	case storage.StateAwaitingImagePrompt:
		HandleImagePrompt(ctx, deps, user, chatID, message.Text)
	default:
		HandleChatMessage(ctx, deps, user, chatID, message.Text)
	}
}

func handleCommand(message *tgbotapi.Message, deps BotDeps) {
	userID := message.From.ID
	chatID := message.Chat.ID

	// /start does its own registration dance.
	if message.Command() == "start" {
		HandleStart(deps, message)
		return
	}

	user, err := ensureUser(deps, userID, message.From.LanguageCode)
	if err != nil {
		deps.Logger.Error("Failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, nil)
		return
	}
	lang := &user.Language

	switch message.Command() {
	case "menu":
		SendMainMenu(deps, chatID, lang)
	case "balance":
		balance, err := deps.Ledger.Balance(userID)
		if err != nil {
			deps.Logger.Error("Failed to read balance", zap.Int64("user_id", userID), zap.Error(err))
			sendGenericError(deps, chatID, lang)
			return
		}
		sendText(deps, chatID, deps.I18n.T(lang, "balance_info", "Credits", balance))
	case "profile":
		HandleProfile(deps, message)
	case "new":
		if err := deps.Store.ClearHistory(userID); err != nil {
			deps.Logger.Error("Failed to clear history", zap.Int64("user_id", userID), zap.Error(err))
			sendGenericError(deps, chatID, lang)
			return
		}
		sendText(deps, chatID, deps.I18n.T(lang, "new_chat"))
	case "voice":
		HandleVoiceSettings(deps, message, user)
	case "version":
		sendText(deps, chatID, fmt.Sprintf("Version: %s\nBuild date: %s", deps.Version, deps.BuildDate))
	case "admin", "stats", "broadcast", "add_credits", "remove_credits":
		if !deps.Auth.IsAdmin(userID) {
			sendText(deps, chatID, deps.I18n.T(lang, "command_admin_only"))
			return
		}
		switch message.Command() {
		case "admin":
			HandleAdmin(deps, message, lang)
		case "stats":
			HandleStats(deps, message, lang)
		case "broadcast":
			HandleBroadcast(deps, message, lang)
		case "add_credits":
			HandleAddCredits(deps, message, lang)
		case "remove_credits":
			HandleRemoveCredits(deps, message, lang)
		}
	default:
		// A typoed command must not be billed as a chat turn.
		sendText(deps, chatID, deps.I18n.T(lang, "unknown_command"))
	}
}
