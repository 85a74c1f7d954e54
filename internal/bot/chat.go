package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

// Pause after each rendered batch so the edit cadence stays smooth even
// when the upstream produces tokens faster than Telegram accepts edits.
const batchPause = 100 * time.Millisecond

// HandleChatMessage runs one metered chat turn: affordability gate, model
// call (streaming or plain per user preference), debit, history append and
// the annotated reply. The charge happens only after the capability call
// succeeded.
func HandleChatMessage(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, text string) {
	lang := &user.Language
	cost := deps.Pricing.ChatMessage

	balance, err := deps.Ledger.Balance(user.UserID)
	if err != nil {
		deps.Logger.Error("Failed to read balance", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "chat_error"))
		return
	}
	if balance < cost {
		sendText(deps, chatID, deps.I18n.T(lang, "insufficient_credits_chat", "Cost", cost))
		return
	}

	messages, err := buildChatMessages(deps, user, text)
	if err != nil {
		deps.Logger.Error("Failed to build chat context", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "chat_error"))
		return
	}

	sendChatAction(deps, chatID, tgbotapi.ChatTyping)

	var reply string
	if user.StreamingEnabled {
		reply = streamChatReply(ctx, deps, user, chatID, messages)
	} else {
		reply = plainChatReply(ctx, deps, user, chatID, messages)
	}
	if reply == "" {
		return
	}

	if err := deps.Store.AppendHistory(user.UserID, openai.RoleUser, text); err != nil {
		deps.Logger.Error("Failed to append user turn to history", zap.Int64("user_id", user.UserID), zap.Error(err))
	}
	if err := deps.Store.AppendHistory(user.UserID, openai.RoleAssistant, reply); err != nil {
		deps.Logger.Error("Failed to append assistant turn to history", zap.Int64("user_id", user.UserID), zap.Error(err))
	}
}

// buildChatMessages assembles system prompt + bounded history + new turn.
func buildChatMessages(deps BotDeps, user *storage.User, text string) ([]openai.ChatMessage, error) {
	history, err := deps.Store.RecentHistory(user.UserID, deps.Config.Chat.HistoryLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]openai.ChatMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatMessage{
		Role:    openai.RoleSystem,
		Content: config.SystemPrompt(user.Mode, user.Language),
	})
	for _, h := range history {
		messages = append(messages, openai.ChatMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: text})
	return messages, nil
}

// streamChatReply renders the response incrementally. When the upstream
// stream breaks it falls back to a single plain completion into the same
// message, so the charge and history shape are identical either way.
// Returns the final text, or "" when nothing was charged.
func streamChatReply(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, messages []openai.ChatMessage) string {
	lang := &user.Language
	cost := deps.Pricing.ChatMessage

	session := NewStreamSession(deps.Bot, deps.Logger, chatID)
	if err := session.Start(deps.I18n.T(lang, "streaming_thinking")); err != nil {
		deps.Logger.Error("Failed to send stream placeholder", zap.Int64("chat_id", chatID), zap.Error(err))
		// No message to render into; run the plain path instead.
		return plainChatReply(ctx, deps, user, chatID, messages)
	}

	batcher := &deltaBatcher{}
	full, err := deps.AI.CreateChatCompletionStream(ctx, user.Model, messages, deps.Config.Chat.MaxTokens,
		func(delta string) error {
			if batch, ok := batcher.add(delta); ok {
				session.Push(batch, false)
				time.Sleep(batchPause)
			}
			return nil
		})
	if err != nil {
		deps.Logger.Warn("Streaming completion failed, falling back to plain call",
			zap.Int64("user_id", user.UserID), zap.Error(err))
		full, err = deps.AI.CreateChatCompletion(ctx, user.Model, messages, deps.Config.Chat.MaxTokens)
		if err != nil {
			deps.Logger.Error("Fallback completion failed", zap.Int64("user_id", user.UserID), zap.Error(err))
			session.Finalize(deps.I18n.T(lang, "chat_error"), "")
			return ""
		}
	} else if tail, ok := batcher.flush(); ok {
		session.Push(tail, false)
	}

	deps.Ledger.Debit(user.UserID, cost)
	session.Finalize(full, deps.I18n.T(lang, "streaming_credits_deducted", "Cost", cost))
	return full
}

// plainChatReply runs a single completion and sends the whole reply at once.
func plainChatReply(ctx context.Context, deps BotDeps, user *storage.User, chatID int64, messages []openai.ChatMessage) string {
	lang := &user.Language
	cost := deps.Pricing.ChatMessage

	full, err := deps.AI.CreateChatCompletion(ctx, user.Model, messages, deps.Config.Chat.MaxTokens)
	if err != nil {
		deps.Logger.Error("Chat completion failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		sendText(deps, chatID, deps.I18n.T(lang, "chat_error"))
		return ""
	}

	deps.Ledger.Debit(user.UserID, cost)
	sendText(deps, chatID, full+deps.I18n.T(lang, "streaming_credits_deducted", "Cost", cost))
	return full
}
