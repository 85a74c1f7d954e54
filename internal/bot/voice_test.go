package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

func voiceNote(duration int) *tgbotapi.Voice {
	return &tgbotapi.Voice{FileID: "voice-file", Duration: duration}
}

func enableVoiceReplies(t *testing.T, deps BotDeps, userID int64) *storage.User {
	t.Helper()
	require.NoError(t, deps.Store.SetVoiceEnabled(userID, true))
	user, err := deps.Store.GetUser(userID)
	require.NoError(t, err)
	return user
}

func TestVoiceTooLongRejectedBeforeAnything(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	user := createTestUser(t, deps, 1)

	called := false
	ai.transcribeFn = func([]byte, string) (string, error) {
		called = true
		return "", nil
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(301))

	assert.False(t, called)
	assert.Equal(t, int64(7), balanceOf(t, deps, 1))

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Maximum: 300 seconds, yours: 301 seconds")
}

func TestVoiceRoundTripGatedAsOneCharge(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	createTestUser(t, deps, 1)
	deps.Ledger.Debit(1, 2) // 5 left, round trip needs 6
	user := enableVoiceReplies(t, deps, 1)

	called := false
	ai.transcribeFn = func([]byte, string) (string, error) {
		called = true
		return "", nil
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	assert.False(t, called, "no capability runs when the composite gate fails")
	assert.Equal(t, int64(5), balanceOf(t, deps, 1))

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Insufficient credits for voice response")
	assert.Contains(t, texts[0], "6")
}

func TestVoiceRoundTripSingleCompositeDebit(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	createTestUser(t, deps, 1)
	user := enableVoiceReplies(t, deps, 1)

	ai.transcribeFn = func(audio []byte, language string) (string, error) {
		assert.Equal(t, []byte("ogg"), audio)
		assert.Equal(t, "en", language)
		return "what is the weather", nil
	}
	ai.chatFn = func(_ string, messages []openai.ChatMessage) (string, error) {
		assert.Equal(t, "what is the weather", messages[len(messages)-1].Content)
		return "it is sunny", nil
	}
	ai.synthesizeFn = func(text, voice string) ([]byte, error) {
		assert.Equal(t, "it is sunny", text)
		assert.Equal(t, "alloy", voice)
		return []byte("mp3"), nil
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	assert.Equal(t, int64(1), balanceOf(t, deps, 1), "one debit covering the whole round trip")

	history, err := deps.Store.RecentHistory(1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "what is the weather", history[0].Content)
	assert.Equal(t, "it is sunny", history[1].Content)

	var voiceReply *tgbotapi.VoiceConfig
	for _, s := range tg.sent {
		if v, ok := s.(tgbotapi.VoiceConfig); ok {
			voiceReply = &v
			break
		}
	}
	require.NotNil(t, voiceReply, "reply delivered as a voice message")
	assert.Contains(t, voiceReply.Caption, "6 credits deducted")
}

func TestVoiceSynthesisFailureChargesNothing(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	createTestUser(t, deps, 1)
	user := enableVoiceReplies(t, deps, 1)

	ai.synthesizeFn = func(string, string) ([]byte, error) {
		return nil, errors.New("tts down")
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	assert.Equal(t, int64(7), balanceOf(t, deps, 1), "failed round trip never charges")

	history, err := deps.Store.RecentHistory(1, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "Failed to generate voice response")
}

func TestVoiceRecognitionFailureChargesNothing(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	user := createTestUser(t, deps, 1)

	ai.transcribeFn = func([]byte, string) (string, error) {
		return "", errors.New("whisper down")
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	assert.Equal(t, int64(7), balanceOf(t, deps, 1))
	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[len(texts)-1], "Failed to recognize speech")
}

func TestVoiceRecognitionOnlyBillsSeparatelyFromChat(t *testing.T) {
	deps, tg, ai := newTestDeps(t)
	createTestUser(t, deps, 1)
	deps.Ledger.Debit(1, 5) // 2 left: enough for recognition, not for the chat turn
	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)

	ai.transcribeFn = func([]byte, string) (string, error) {
		return "hello there", nil
	}
	chatCalled := false
	ai.chatStreamFn = func([]openai.ChatMessage, func(string) error) (string, error) {
		chatCalled = true
		return "hi", nil
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	assert.False(t, chatCalled, "chat gate rejects the follow-up turn")
	assert.Equal(t, int64(0), balanceOf(t, deps, 1), "only recognition was billed")

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	joined := ""
	for _, s := range texts {
		joined += s + "\n"
	}
	assert.Contains(t, joined, "hello there")
	assert.Contains(t, joined, "2 credits deducted")
	assert.Contains(t, joined, "run out of credits")
}

func TestVoiceRecognitionOnlyRoutesTranscriptToChat(t *testing.T) {
	deps, _, ai := newTestDeps(t)
	user := createTestUser(t, deps, 1)

	ai.transcribeFn = func([]byte, string) (string, error) {
		return "tell me a joke", nil
	}
	ai.chatStreamFn = func(messages []openai.ChatMessage, onDelta func(string) error) (string, error) {
		assert.Equal(t, "tell me a joke", messages[len(messages)-1].Content)
		_ = onDelta("here is one.")
		return "here is one.", nil
	}

	HandleVoiceMessage(context.Background(), deps, user, 1, voiceNote(10))

	// 2 for recognition plus 1 for the chat turn.
	assert.Equal(t, int64(4), balanceOf(t, deps, 1))

	history, err := deps.Store.RecentHistory(1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "tell me a joke", history[0].Content)
}
