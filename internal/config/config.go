package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	BotToken        string        `toml:"botToken"`
	BotUsername     string        `toml:"botUsername"`
	OpenAIKey       string        `toml:"openAIKey"`
	OpenAIBaseURL   string        `toml:"openAIBaseURL"`
	DBPath          string        `toml:"dbPath"`
	DefaultLanguage string        `toml:"defaultLanguage"`
	LogConfig       LogConfig     `toml:"logConfig"`
	Admins          AdminConfig   `toml:"admins"`
	Credits         CreditsConfig `toml:"credits"`
	Pricing         PricingConfig `toml:"pricing"`
	Chat            ChatConfig    `toml:"chat"`
	Models          []ModelConfig `toml:"models"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type AdminConfig struct {
	AdminUserIDs []int64 `toml:"adminUserIDs"`
}

type CreditsConfig struct {
	InitialBalance       int64 `toml:"initialBalance"`
	ReferralInviterBonus int64 `toml:"referralInviterBonus"`
	ReferralNewUserBonus int64 `toml:"referralNewUserBonus"`
	ReferralCodeLength   int   `toml:"referralCodeLength"`
}

type PricingConfig struct {
	ChatMessage      int64 `toml:"chatMessage"`
	Image            int64 `toml:"image"`
	VoiceRecognition int64 `toml:"voiceRecognition"`
	VoiceSynthesis   int64 `toml:"voiceSynthesis"`
}

type ChatConfig struct {
	HistoryLimit     int `toml:"historyLimit"`
	MaxTokens        int `toml:"maxTokens"`
	VoiceMaxTokens   int `toml:"voiceMaxTokens"`
	MaxVoiceDuration int `toml:"maxVoiceDuration"`
}

type ModelConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.Credits.InitialBalance == 0 {
		cfg.Credits.InitialBalance = 7
	}
	if cfg.Credits.ReferralInviterBonus == 0 {
		cfg.Credits.ReferralInviterBonus = 5
	}
	if cfg.Credits.ReferralNewUserBonus == 0 {
		cfg.Credits.ReferralNewUserBonus = 2
	}
	if cfg.Credits.ReferralCodeLength == 0 {
		cfg.Credits.ReferralCodeLength = 8
	}
	if cfg.Pricing.ChatMessage == 0 {
		cfg.Pricing.ChatMessage = 1
	}
	if cfg.Pricing.Image == 0 {
		cfg.Pricing.Image = 5
	}
	if cfg.Pricing.VoiceRecognition == 0 {
		cfg.Pricing.VoiceRecognition = 2
	}
	if cfg.Pricing.VoiceSynthesis == 0 {
		cfg.Pricing.VoiceSynthesis = 3
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 10
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 1000
	}
	if cfg.Chat.VoiceMaxTokens == 0 {
		cfg.Chat.VoiceMaxTokens = 500
	}
	if cfg.Chat.MaxVoiceDuration == 0 {
		cfg.Chat.MaxVoiceDuration = 300
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []ModelConfig{
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
			{ID: "gpt-4o", Name: "GPT-4o"},
		}
	}
}

func ValidateURL(urlString string) bool {
	if urlString == "" {
		return false
	}
	if _, err := url.Parse(urlString); err != nil {
		return false
	}
	return true
}

func MaskedPrint(str string) string {
	if len(str) <= 4 {
		return strings.Repeat("*", len(str))
	}
	// only show the last 4 characters
	return strings.Repeat("*", len(str)-4) + str[len(str)-4:]
}

func PrintConfig(cfg *Config) {
	fmt.Println()
	fmt.Println("--------------------------------")
	fmt.Println("Config:")
	fmt.Printf("\tBotToken: %s\n", MaskedPrint(cfg.BotToken))
	fmt.Printf("\tBotUsername: %s\n", cfg.BotUsername)
	fmt.Printf("\tOpenAIKey: %s\n", MaskedPrint(cfg.OpenAIKey))
	fmt.Printf("\tOpenAIBaseURL: %s\n", cfg.OpenAIBaseURL)
	fmt.Printf("\tDBPath: %s\n", cfg.DBPath)
	fmt.Printf("\tDefaultLanguage: %s\n", cfg.DefaultLanguage)
	fmt.Printf("\tLogConfig: %v\n", cfg.LogConfig)
	fmt.Printf("\tAdmins: %v\n", cfg.Admins)
	fmt.Printf("\tCredits: %v\n", cfg.Credits)
	fmt.Printf("\tPricing: %v\n", cfg.Pricing)
	fmt.Printf("\tChat: %v\n", cfg.Chat)
	fmt.Printf("\tModels: %v\n", cfg.Models)
	fmt.Println("--------------------------------")
	fmt.Println()
}

func ValidateConfig(cfg *Config) error {
	PrintConfig(cfg)
	if cfg.BotToken == "" {
		return fmt.Errorf("botToken is required")
	}
	if cfg.BotUsername == "" {
		return fmt.Errorf("botUsername is required")
	}
	if cfg.OpenAIKey == "" {
		return fmt.Errorf("openAIKey is required")
	}
	if cfg.OpenAIBaseURL != "" && !ValidateURL(cfg.OpenAIBaseURL) {
		return fmt.Errorf("openAIBaseURL must be a valid URL")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	if !IsSupportedLanguage(cfg.DefaultLanguage) {
		return fmt.Errorf("defaultLanguage must be one of: en, ru, pl")
	}
	if len(cfg.Admins.AdminUserIDs) == 0 {
		return fmt.Errorf("adminUserIDs is required")
	}
	if cfg.Credits.InitialBalance < 0 {
		return fmt.Errorf("initialBalance must not be negative")
	}
	if cfg.Credits.ReferralCodeLength < 4 || cfg.Credits.ReferralCodeLength > 32 {
		return fmt.Errorf("referralCodeLength must be between 4 and 32")
	}
	if cfg.Pricing.ChatMessage < 0 || cfg.Pricing.Image < 0 ||
		cfg.Pricing.VoiceRecognition < 0 || cfg.Pricing.VoiceSynthesis < 0 {
		return fmt.Errorf("pricing entries must not be negative")
	}
	if cfg.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("historyLimit must be greater than 0")
	}
	if cfg.Chat.MaxVoiceDuration <= 0 {
		return fmt.Errorf("maxVoiceDuration must be greater than 0")
	}
	if len(cfg.Models) == 0 {
		return fmt.Errorf("models is required")
	}
	if cfg.LogConfig.Level == "" {
		return fmt.Errorf("logLevel is required")
	}
	if cfg.LogConfig.Format == "" {
		return fmt.Errorf("logFormat is required")
	}
	return nil
}

// HasModel reports whether id is present in the configured model catalog.
func (c *Config) HasModel(id string) bool {
	for _, m := range c.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// DefaultModel returns the first configured model id.
func (c *Config) DefaultModel() string {
	return c.Models[0].ID
}
