package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// Broadcast pacing, safely under the bot-wide ~30 msg/s ceiling.
const broadcastInterval = 100 * time.Millisecond

// HandleAdmin prints the admin panel help.
func HandleAdmin(deps BotDeps, message *tgbotapi.Message, lang *string) {
	sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_welcome"))
}

// HandleStats reports the registered user count.
func HandleStats(deps BotDeps, message *tgbotapi.Message, lang *string) {
	count, err := deps.Store.CountUsers()
	if err != nil {
		deps.Logger.Error("Failed to count users", zap.Error(err))
		sendGenericError(deps, message.Chat.ID, lang)
		return
	}
	sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_stats", "Count", count))
}

// HandleBroadcast sends the message text to every registered user, rate
// limited, and reports the success/failure tally.
func HandleBroadcast(deps BotDeps, message *tgbotapi.Message, lang *string) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_broadcast_no_message"))
		return
	}

	ids, err := deps.Store.AllUserIDs()
	if err != nil {
		deps.Logger.Error("Failed to list users for broadcast", zap.Error(err))
		sendGenericError(deps, message.Chat.ID, lang)
		return
	}

	sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_broadcast_start", "Count", len(ids)))

	limiter := rate.NewLimiter(rate.Every(broadcastInterval), 1)
	success, failed := 0, 0
	for _, id := range ids {
		if err := limiter.Wait(context.Background()); err != nil {
			break
		}
		if _, err := deps.Bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			failed++
			deps.Logger.Debug("Broadcast delivery failed", zap.Int64("user_id", id), zap.Error(err))
		} else {
			success++
		}
	}

	sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_broadcast_complete",
		"Success", success, "Failed", failed))
}

// HandleAddCredits credits a user: /add_credits <user_id> <amount>.
func HandleAddCredits(deps BotDeps, message *tgbotapi.Message, lang *string) {
	targetID, amount, ok := parseCreditArgs(deps, message, lang, "/add_credits")
	if !ok {
		return
	}

	target, err := deps.Store.GetUser(targetID)
	if err != nil || target == nil {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_user_not_found", "UserID", targetID))
		return
	}

	oldBalance, err := deps.Ledger.Balance(targetID)
	if err != nil {
		sendGenericError(deps, message.Chat.ID, lang)
		return
	}
	newBalance, err := deps.Ledger.Credit(targetID, amount)
	if err != nil {
		deps.Logger.Error("Admin credit failed", zap.Int64("user_id", targetID), zap.Error(err))
		sendGenericError(deps, message.Chat.ID, lang)
		return
	}

	sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_credits_added_success",
		"UserID", targetID, "Amount", amount, "OldBalance", oldBalance, "NewBalance", newBalance))

	notifyCreditChange(deps, target, "admin_user_notified_credits_added", amount, newBalance, message.Chat.ID, lang)
}

// HandleRemoveCredits debits a user: /remove_credits <user_id> <amount> [force].
// Without force a debit that would go negative is refused.
func HandleRemoveCredits(deps BotDeps, message *tgbotapi.Message, lang *string) {
	args := strings.Fields(message.CommandArguments())
	force := len(args) == 3 && args[2] == "force"

	targetID, amount, ok := parseCreditArgs(deps, message, lang, "/remove_credits")
	if !ok {
		return
	}

	target, err := deps.Store.GetUser(targetID)
	if err != nil || target == nil {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_user_not_found", "UserID", targetID))
		return
	}

	oldBalance, err := deps.Ledger.Balance(targetID)
	if err != nil {
		sendGenericError(deps, message.Chat.ID, lang)
		return
	}
	newBalance, applied := deps.Ledger.DebitStrict(targetID, amount, force)
	if !applied {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_credits_remove_failed",
			"UserID", targetID, "Current", oldBalance, "Amount", amount, "Command", "/remove_credits"))
		return
	}

	reply := deps.I18n.T(lang, "admin_credits_removed_success",
		"UserID", targetID, "Amount", amount, "OldBalance", oldBalance, "NewBalance", newBalance)
	if newBalance < 0 {
		reply += "\n\n" + deps.I18n.T(lang, "admin_balance_negative_warning")
	}
	sendText(deps, message.Chat.ID, reply)

	notifyCreditChange(deps, target, "admin_user_notified_credits_removed", amount, newBalance, message.Chat.ID, lang)
	if newBalance < 0 {
		if _, err := deps.Bot.Send(tgbotapi.NewMessage(targetID,
			deps.I18n.T(&target.Language, "admin_user_balance_negative"))); err != nil {
			deps.Logger.Debug("Failed to send negative balance notice", zap.Int64("user_id", targetID), zap.Error(err))
		}
	}
}

// parseCreditArgs validates "<user_id> <amount>" and replies with a format
// hint on malformed input. No side effects on the bad path.
func parseCreditArgs(deps BotDeps, message *tgbotapi.Message, lang *string, command string) (int64, int64, bool) {
	args := strings.Fields(message.CommandArguments())
	if len(args) < 2 {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_command_format_error",
			"Command", command+" <user_id> <amount>",
			"Example", command+" 123456789 10"))
		return 0, 0, false
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_command_format_error",
			"Command", command+" <user_id> <amount>",
			"Example", command+" 123456789 10"))
		return 0, 0, false
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		sendText(deps, message.Chat.ID, deps.I18n.T(lang, "admin_credits_positive"))
		return 0, 0, false
	}

	return targetID, amount, true
}

// notifyCreditChange tells the affected user about an admin balance change.
// Delivery failure is reported to the admin but never rolls anything back.
func notifyCreditChange(deps BotDeps, target *storage.User, key string, amount, balance int64, adminChatID int64, adminLang *string) {
	notification := tgbotapi.NewMessage(target.UserID,
		deps.I18n.T(&target.Language, key, "Amount", amount, "Balance", balance))
	if _, err := deps.Bot.Send(notification); err != nil {
		deps.Logger.Warn("Failed to notify user about balance change",
			zap.Int64("user_id", target.UserID), zap.Error(err))
		sendText(deps, adminChatID, deps.I18n.T(adminLang, "admin_notification_failed", "Error", err.Error()))
	}
}
