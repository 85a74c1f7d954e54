package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func TestStartRegistersNewUserWithStarterBalance(t *testing.T) {
	deps, tg, _ := newTestDeps(t)

	HandleStart(deps, newCommandMessage(1, "/start"))

	assert.Equal(t, int64(7), balanceOf(t, deps, 1))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Nil(t, user.InvitedBy)
	assert.Contains(t, user.ReferralCode, "ref1_")

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Hello, Alice!")
}

func TestStartWithReferralCodeCreditsBothSides(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	inviter := createTestUser(t, deps, 42)

	HandleStart(deps, newCommandMessage(1, "/start "+inviter.ReferralCode))

	assert.Equal(t, int64(9), balanceOf(t, deps, 1), "starter balance plus new-user bonus")
	assert.Equal(t, int64(12), balanceOf(t, deps, 42), "inviter bonus credited")

	invitee, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	require.NotNil(t, invitee.InvitedBy)
	assert.Equal(t, int64(42), *invitee.InvitedBy)

	count, err := deps.Store.CountInvited(42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var inviteeWelcome, inviterNote bool
	for _, text := range tg.sentTexts() {
		if text == "" {
			continue
		}
		switch {
		case containsAll(text, "You came through a referral link", "2 bonus credits", "Your total credits: 9"):
			inviteeWelcome = true
		case containsAll(text, "registered through your referral link", "5 bonus credits", "Your balance: 12"):
			inviterNote = true
		}
	}
	assert.True(t, inviteeWelcome, "invitee told about the bonus")
	assert.True(t, inviterNote, "inviter notified")
}

func TestStartIsIdempotentForExistingUsers(t *testing.T) {
	deps, tg, _ := newTestDeps(t)
	inviter := createTestUser(t, deps, 42)
	createTestUser(t, deps, 1)

	HandleStart(deps, newCommandMessage(1, "/start "+inviter.ReferralCode))

	assert.Equal(t, int64(7), balanceOf(t, deps, 1), "existing accounts never re-credit")
	assert.Equal(t, int64(7), balanceOf(t, deps, 42))

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	assert.Nil(t, user.InvitedBy, "replayed deep links never link")

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Welcome back, Alice!")
}

func TestStartWithInvalidCodeStillRegisters(t *testing.T) {
	deps, tg, _ := newTestDeps(t)

	HandleStart(deps, newCommandMessage(1, "/start ref42_bogus123"))

	assert.Equal(t, int64(7), balanceOf(t, deps, 1), "starter credits without referral bonus")

	user, err := deps.Store.GetUser(1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Nil(t, user.InvitedBy)

	texts := tg.sentTexts()
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "Referral code is invalid")
}
