package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateUserDefaults(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	user, err := store.CreateUser(42, 7, "gpt-3.5-turbo", "ru", 8)
	require.NoError(t, err)

	assert.Equal(t, int64(42), user.UserID)
	assert.Equal(t, int64(7), user.Credits)
	assert.Equal(t, "assistant", user.Mode)
	assert.Equal(t, "gpt-3.5-turbo", user.Model)
	assert.Equal(t, StateChat, user.State)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, "ru", user.VoiceLanguage, "recognition language follows interface language")
	assert.False(t, user.VoiceEnabled)
	assert.True(t, user.StreamingEnabled)
	assert.Nil(t, user.InvitedBy)

	assert.True(t, strings.HasPrefix(user.ReferralCode, "ref42_"))
	assert.Len(t, user.ReferralCode, len("ref42_")+8)
}

func TestUserByReferralCode(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	created, err := store.CreateUser(1, 7, "gpt-3.5-turbo", "en", 8)
	require.NoError(t, err)

	found, err := store.UserByReferralCode(created.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.UserID)

	missing, err := store.UserByReferralCode("ref999_nope1234")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetInvitedByIsWriteOnce(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	newTestUser(t, store, 1, 7)
	newTestUser(t, store, 2, 7)
	newTestUser(t, store, 3, 7)

	require.NoError(t, store.SetInvitedBy(1, 2))
	assert.Error(t, store.SetInvitedBy(1, 3), "second linkage refused")

	user, err := store.GetUser(1)
	require.NoError(t, err)
	require.NotNil(t, user.InvitedBy)
	assert.Equal(t, int64(2), *user.InvitedBy)
}

func TestSetModeClearsHistoryAndState(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	newTestUser(t, store, 1, 7)
	require.NoError(t, store.AppendHistory(1, "user", "hello"))
	require.NoError(t, store.AppendHistory(1, "assistant", "hi"))
	require.NoError(t, store.SetState(1, StateAwaitingImagePrompt))

	require.NoError(t, store.SetMode(1, "joker"))

	user, err := store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "joker", user.Mode)
	assert.Equal(t, StateChat, user.State)

	history, err := store.RecentHistory(1, 10)
	require.NoError(t, err)
	assert.Empty(t, history, "mode switch drops the conversation context")
}

func TestSetLanguageSyncsVoiceLanguageUnlessPinned(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	newTestUser(t, store, 1, 7)

	synced, err := store.SetLanguage(1, "ru")
	require.NoError(t, err)
	assert.True(t, synced)

	user, err := store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "ru", user.Language)
	assert.Equal(t, "ru", user.VoiceLanguage)

	// Explicit voice-language pick pins it.
	require.NoError(t, store.SetVoiceLanguage(1, "pl"))

	synced, err = store.SetLanguage(1, "en")
	require.NoError(t, err)
	assert.False(t, synced, "pinned recognition language stays put")

	user, err = store.GetUser(1)
	require.NoError(t, err)
	assert.Equal(t, "en", user.Language)
	assert.Equal(t, "pl", user.VoiceLanguage)
	assert.True(t, user.VoiceLanguagePinned)
}

func TestCountInvitedAndAllUserIDs(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, zap.NewNop())

	newTestUser(t, store, 1, 7)
	newTestUser(t, store, 2, 7)
	newTestUser(t, store, 3, 7)
	require.NoError(t, store.SetInvitedBy(2, 1))
	require.NoError(t, store.SetInvitedBy(3, 1))

	count, err := store.CountInvited(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	total, err := store.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	ids, err := store.AllUserIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}
