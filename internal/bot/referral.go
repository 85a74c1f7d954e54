package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleStart registers first-time users with the starter balance and
// resolves an optional referral code argument. Existing accounts greet and
// ignore the argument entirely, which makes replayed deep links harmless.
func HandleStart(deps BotDeps, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	name := userName(message.From)
	code := message.CommandArguments()

	existing, err := deps.Store.GetUser(userID)
	if err != nil {
		deps.Logger.Error("Failed to load user on /start", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, nil)
		return
	}
	if existing != nil {
		sendText(deps, chatID, deps.I18n.T(&existing.Language, "welcome_back", "User", name))
		return
	}

	telegramLang := ""
	if message.From != nil {
		telegramLang = message.From.LanguageCode
	}
	user, err := ensureUser(deps, userID, telegramLang)
	if err != nil {
		deps.Logger.Error("Failed to register user", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, nil)
		return
	}
	lang := &user.Language

	if code == "" {
		sendText(deps, chatID, deps.I18n.T(lang, "welcome_message", "User", name))
		return
	}

	inviter, err := deps.Store.UserByReferralCode(code)
	if err != nil {
		deps.Logger.Error("Referral code lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "welcome_message", "User", name))
		return
	}
	if inviter == nil {
		sendText(deps, chatID, deps.I18n.T(lang, "referral_invalid_code", "User", name))
		return
	}
	if inviter.UserID == userID {
		sendText(deps, chatID, deps.I18n.T(lang, "referral_own_code", "User", name))
		return
	}

	if err := deps.Store.SetInvitedBy(userID, inviter.UserID); err != nil {
		// Linkage is write-once; a raced second /start gets the plain greeting.
		deps.Logger.Warn("Referral linkage not recorded", zap.Int64("user_id", userID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "welcome_message", "User", name))
		return
	}

	bonus := deps.Config.Credits.ReferralNewUserBonus
	total, err := deps.Ledger.Credit(userID, bonus)
	if err != nil {
		deps.Logger.Error("Failed to credit referral bonus", zap.Int64("user_id", userID), zap.Error(err))
		total, _ = deps.Ledger.Balance(userID)
	}
	sendText(deps, chatID, deps.I18n.T(lang, "referral_welcome",
		"User", name, "Bonus", bonus, "Total", total))

	inviterBonus := deps.Config.Credits.ReferralInviterBonus
	inviterBalance, err := deps.Ledger.Credit(inviter.UserID, inviterBonus)
	if err != nil {
		deps.Logger.Error("Failed to credit inviter bonus", zap.Int64("inviter_id", inviter.UserID), zap.Error(err))
		return
	}
	notification := tgbotapi.NewMessage(inviter.UserID, deps.I18n.T(&inviter.Language,
		"referral_inviter_notification", "Bonus", inviterBonus, "Balance", inviterBalance))
	if _, err := deps.Bot.Send(notification); err != nil {
		// Inviter may have blocked the bot; the bonus stands regardless.
		deps.Logger.Warn("Failed to notify inviter", zap.Int64("inviter_id", inviter.UserID), zap.Error(err))
	}
}
