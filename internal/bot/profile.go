package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleProfile renders the account page: balance, referral link and
// invitation stats.
func HandleProfile(deps BotDeps, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	user, err := deps.Store.GetUser(userID)
	if err != nil || user == nil {
		if err != nil {
			deps.Logger.Error("Failed to load profile", zap.Int64("user_id", userID), zap.Error(err))
		}
		sendText(deps, chatID, deps.I18n.T(nil, "profile_not_found"))
		return
	}
	lang := &user.Language

	invited, err := deps.Store.CountInvited(userID)
	if err != nil {
		deps.Logger.Error("Failed to count invited users", zap.Int64("user_id", userID), zap.Error(err))
	}

	balance, err := deps.Ledger.Balance(userID)
	if err != nil {
		deps.Logger.Error("Failed to read balance", zap.Int64("user_id", userID), zap.Error(err))
		sendGenericError(deps, chatID, lang)
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", deps.BotUsername, user.ReferralCode)

	var b strings.Builder
	b.WriteString(deps.I18n.T(lang, "profile_title", "Name", userName(message.From)))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "profile_user_id", "UserID", userID))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "profile_balance", "Credits", balance))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "profile_referral_program"))
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "profile_invited_friends", "Count", invited))
	b.WriteString("\n")
	if user.InvitedBy != nil {
		b.WriteString(deps.I18n.T(lang, "profile_invited_by", "UserID", *user.InvitedBy))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(deps.I18n.T(lang, "profile_referral_link", "Link", link))
	b.WriteString("\n\n")
	b.WriteString(deps.I18n.T(lang, "profile_how_it_works",
		"NewUserBonus", deps.Config.Credits.ReferralNewUserBonus,
		"InviterBonus", deps.Config.Credits.ReferralInviterBonus))

	sendMarkdown(deps, chatID, b.String())
}
