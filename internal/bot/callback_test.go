package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
)

func newCallback(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID, FirstName: "Alice", LanguageCode: "en"},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}
}

func TestCallbackModeChangeClearsConversation(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	createTestUser(t, deps, 1)
	require.NoError(t, deps.Store.AppendHistory(1, "user", "old context"))
	require.NoError(t, deps.Store.SetState(1, storage.StateAwaitingImagePrompt))

	HandleCallbackQuery(deps, newCallback(1, cbModePrefix+"joker"))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "joker", user.Mode)
	assert.Equal(t, storage.StateChat, user.State)

	history, err := deps.Store.RecentHistory(1, 10)
	require.NoError(t, err)
	assert.Empty(t, history, "mode switch starts a fresh conversation")

	assert.Contains(t, tg.lastEditText(), "Joker")
}

func TestCallbackRejectsUnknownMode(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	createTestUser(t, deps, 1)

	HandleCallbackQuery(deps, newCallback(1, cbModePrefix+"pirate"))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "assistant", user.Mode)
	assert.Equal(t, 0, tg.editCount())
}

func TestCallbackImageGenerateArmsPromptState(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	createTestUser(t, deps, 1)

	HandleCallbackQuery(deps, newCallback(1, cbImageGenerate))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, storage.StateAwaitingImagePrompt, user.State)
	assert.Contains(t, tg.lastEditText(), "Send a text prompt")
}

func TestCallbackLanguageChangeSyncsVoiceLanguage(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	createTestUser(t, deps, 1)

	HandleCallbackQuery(deps, newCallback(1, cbLangPrefix+"ru"))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, "ru", user.VoiceLanguage, "recognition language follows the interface")

	// Confirmation arrives in the freshly selected language.
	assert.Contains(t, tg.lastEditText(), "Язык интерфейса изменен")
}

func TestCallbackLanguageChangeRespectsPinnedVoiceLanguage(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	createTestUser(t, deps, 1)
	require.NoError(t, deps.Store.SetVoiceLanguage(1, "pl"))

	HandleCallbackQuery(deps, newCallback(1, cbLangPrefix+"ru"))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, "pl", user.VoiceLanguage, "explicit pick survives interface changes")
}

func TestCallbackVoiceToggle(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	createTestUser(t, deps, 1)

	HandleCallbackQuery(deps, newCallback(1, cbVoiceToggle))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.True(t, user.VoiceEnabled)

	HandleCallbackQuery(deps, newCallback(1, cbVoiceToggle))

	user, err = deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.False(t, user.VoiceEnabled)
}
