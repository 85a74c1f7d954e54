package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
botToken = "123:abc"
botUsername = "testbot"
openAIKey = "sk-test"
dbPath = "./bot.db"

[logConfig]
level = "info"
format = "console"

[admins]
adminUserIDs = [999]
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, int64(7), cfg.Credits.InitialBalance)
	assert.Equal(t, int64(5), cfg.Credits.ReferralInviterBonus)
	assert.Equal(t, int64(2), cfg.Credits.ReferralNewUserBonus)
	assert.Equal(t, 8, cfg.Credits.ReferralCodeLength)

	assert.Equal(t, int64(1), cfg.Pricing.ChatMessage)
	assert.Equal(t, int64(5), cfg.Pricing.Image)
	assert.Equal(t, int64(2), cfg.Pricing.VoiceRecognition)
	assert.Equal(t, int64(3), cfg.Pricing.VoiceSynthesis)

	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.Equal(t, 300, cfg.Chat.MaxVoiceDuration)

	require.NotEmpty(t, cfg.Models)
	assert.Equal(t, "gpt-3.5-turbo", cfg.DefaultModel())
	assert.True(t, cfg.HasModel("gpt-4o"))
	assert.False(t, cfg.HasModel("gpt-5"))

	require.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.BotToken = "" }, "botToken"},
		{"missing key", func(c *Config) { c.OpenAIKey = "" }, "openAIKey"},
		{"no admins", func(c *Config) { c.Admins.AdminUserIDs = nil }, "adminUserIDs"},
		{"bad language", func(c *Config) { c.DefaultLanguage = "de" }, "defaultLanguage"},
		{"negative price", func(c *Config) { c.Pricing.Image = -1 }, "pricing"},
		{"short referral code", func(c *Config) { c.Credits.ReferralCodeLength = 2 }, "referralCodeLength"},
		{"no models", func(c *Config) { c.Models = nil }, "models"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfigFile(t, minimalConfig))
			require.NoError(t, err)
			tc.mutate(cfg)

			err = ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSystemPromptFallsBack(t *testing.T) {
	assert.NotEmpty(t, SystemPrompt(ModeJoker, "ru"))
	assert.Equal(t, systemPrompts[ModeJoker]["en"], SystemPrompt(ModeJoker, "de"))
	assert.Equal(t, systemPrompts[ModeAssistant]["en"], SystemPrompt("pirate", "de"))
}

func TestMaskedPrint(t *testing.T) {
	assert.Equal(t, "****", MaskedPrint("abcd"))
	assert.Equal(t, "****567n", MaskedPrint("1234567n"))
	assert.Equal(t, "", MaskedPrint(""))
}
