package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/bot"
	"github.com/szmergonn/telegram-gpt-bot/internal/config"
)

func newStartCmd(version string, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:          "start [config.toml]",
		Short:        "telegram-gpt-bot start",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := "./config.toml"
			if len(args) > 0 {
				configFile = args[0]
			}
			fmt.Println("telegram-gpt-bot start")
			fmt.Println("configPath: ", configFile)
			return run(configFile, version, buildTime)
		},
	}
}

func run(configFile string, version string, buildTime string) error {
	// Bootstrap logger for the configuration loading phase; the real one is
	// built from the loaded config.
	tempLogger, _ := zap.NewProduction()
	defer func() { _ = tempLogger.Sync() }()

	// Optional .env so secrets can be kept out of the TOML file.
	if err := godotenv.Load(); err == nil {
		tempLogger.Info("Loaded environment from .env")
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		tempLogger.Error("Config file does not exist", zap.String("path", configFile))
		return fmt.Errorf("config file does not exist: %s", configFile)
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		tempLogger.Error("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Environment overrides for the secrets.
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.BotToken = token
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAIKey = key
	}

	if err := config.ValidateConfig(cfg); err != nil {
		tempLogger.Error("Config validation failed", zap.Error(err))
		return fmt.Errorf("config validation failed: %w", err)
	}

	return bot.StartBot(cfg, version, buildTime)
}
