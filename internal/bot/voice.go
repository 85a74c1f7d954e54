package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

// HandleVoiceMessage processes an incoming voice note. With voice replies
// enabled the whole round trip (recognition, chat turn, synthesis) is gated
// and debited as one composite charge after every capability succeeded.
// With voice replies disabled only recognition is billed and the transcript
// is handed to the chat orchestrator, which applies its own gate.
func HandleVoiceMessage(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, voice *tgbotapi.Voice) {
	lang := &user.Language

	if voice.Duration > deps.Config.Chat.MaxVoiceDuration {
		sendText(deps, chatID, deps.I18n.T(lang, "voice_too_long",
			"Max", deps.Config.Chat.MaxVoiceDuration, "Duration", voice.Duration))
		return
	}

	cost := deps.Pricing.VoiceRecognition
	if user.VoiceEnabled {
		cost = deps.Pricing.VoiceRoundTrip()
	}
	balance, err := deps.Ledger.Balance(user.UserID)
	if err != nil {
		deps.Logger.Error("Failed to read balance", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendGenericError(deps, chatID, lang)
		return
	}
	if balance < cost {
		if user.VoiceEnabled {
			sendMarkdown(deps, chatID, deps.I18n.T(lang, "insufficient_credits_voice_full",
				"Current", balance,
				"Needed", cost,
				"RecognitionCost", deps.Pricing.VoiceRecognition))
		} else {
			sendText(deps, chatID, deps.I18n.T(lang, "insufficient_credits",
				"Needed", cost, "Current", balance))
		}
		return
	}

	sendText(deps, chatID, deps.I18n.T(lang, "recognizing_speech"))

	audio, err := deps.Files.GetFileBytes(voice.FileID)
	if err != nil {
		deps.Logger.Error("Failed to download voice message", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "voice_recognition_error"))
		return
	}

	transcript, err := deps.AI.Transcribe(ctx, audio, user.VoiceLanguage)
	if err != nil {
		deps.Logger.Error("Speech recognition failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "voice_recognition_error"))
		return
	}

	if user.VoiceEnabled {
		voiceRoundTrip(ctx, deps, user, chatID, transcript)
		return
	}

	// Recognition billed alone; the chat turn below runs its own gate.
	deps.Ledger.Debit(user.UserID, deps.Pricing.VoiceRecognition)
	sendMarkdown(deps, chatID,
		deps.I18n.T(lang, "recognized_text", "Text", transcript)+
			deps.I18n.T(lang, "streaming_credits_deducted", "Cost", deps.Pricing.VoiceRecognition))

	HandleChatMessage(ctx, deps, user, chatID, transcript)
}

// voiceRoundTrip completes the transcript through the chat model and
// synthesizes the reply. Nothing is debited until all of it worked.
func voiceRoundTrip(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, transcript string) {
	lang := &user.Language
	cost := deps.Pricing.VoiceRoundTrip()

	sendMarkdown(deps, chatID, deps.I18n.T(lang, "recognized_text", "Text", transcript))

	messages, err := buildChatMessages(deps, user, transcript)
	if err != nil {
		deps.Logger.Error("Failed to build chat context", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "text_response_error"))
		return
	}

	reply, err := deps.AI.CreateChatCompletion(ctx, user.Model, messages, deps.Config.Chat.VoiceMaxTokens)
	if err != nil {
		deps.Logger.Error("Chat completion for voice reply failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "text_response_error"))
		return
	}

	sendText(deps, chatID, deps.I18n.T(lang, "generating_voice_response"))

	speechVoice := user.Voice
	if !config.IsAvailableVoice(speechVoice) {
		speechVoice = "alloy"
	}
	audioReply, err := deps.AI.Synthesize(ctx, reply, speechVoice)
	if err != nil {
		deps.Logger.Error("Speech synthesis failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "voice_generation_error"))
		return
	}

	deps.Ledger.Debit(user.UserID, cost)

	if err := deps.Store.AppendHistory(user.UserID, openai.RoleUser, transcript); err != nil {
		deps.Logger.Error("Failed to append user turn to history", zap.Int64("user_id", user.UserID), zap.Error(err))
	}
	if err := deps.Store.AppendHistory(user.UserID, openai.RoleAssistant, reply); err != nil {
		deps.Logger.Error("Failed to append assistant turn to history", zap.Int64("user_id", user.UserID), zap.Error(err))
	}

	voiceMsg := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: "voice_response.mp3", Bytes: audioReply})
	voiceMsg.Caption = deps.I18n.T(lang, "voice_response_caption", "Cost", cost)
	if _, err := deps.Bot.Send(voiceMsg); err != nil {
		deps.Logger.Error("Failed to send voice reply", zap.Int64("chat_id", chatID), zap.Error(err))
		// Charged already; deliver the reply as text so it is not lost.
		sendText(deps, chatID, reply)
	}
}
