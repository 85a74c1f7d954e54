package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

// HandleImagePrompt consumes the awaited image prompt. The interaction
// state returns to chat on every exit, so a failed or rejected generation
// never leaves the account stuck in prompt mode.
func HandleImagePrompt(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, prompt string) {
	defer func() {
		if err := deps.Store.SetState(user.UserID, storage.StateChat); err != nil {
			deps.Logger.Error("Failed to reset interaction state", zap.Int64("user_id", user.UserID), zap.Error(err))
		}
	}()

	lang := &user.Language
	cost := deps.Pricing.Image

	balance, err := deps.Ledger.Balance(user.UserID)
	if err != nil {
		deps.Logger.Error("Failed to read balance", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendGenericError(deps, chatID, lang)
		return
	}
	if balance < cost {
		sendText(deps, chatID, deps.I18n.T(lang, "insufficient_credits_image",
			"Needed", cost, "Current", balance))
		return
	}

	sendChatAction(deps, chatID, tgbotapi.ChatUploadPhoto)

	imageURL, err := deps.AI.GenerateImage(ctx, prompt)
	if err != nil {
		deps.Logger.Error("Image generation failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "image_error"))
		return
	}

	deps.Ledger.Debit(user.UserID, cost)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = deps.I18n.T(lang, "image_ready", "Cost", cost)
	if _, err := deps.Bot.Send(photo); err != nil {
		deps.Logger.Error("Failed to send generated image", zap.Int64("chat_id", chatID), zap.Error(err))
		// Charged but undeliverable as a photo; at least hand over the URL.
		sendText(deps, chatID, imageURL)
	}
}
