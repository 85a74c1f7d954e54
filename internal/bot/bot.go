package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/auth"
	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/i18n"
	"github.com/szmergonn/telegram-gpt-bot/internal/logger"
	"github.com/szmergonn/telegram-gpt-bot/internal/pricing"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

// StartBot wires everything together and runs the long-polling loop until
// the process is stopped. Each update is handled on its own goroutine.
func StartBot(cfg *config.Config, version string, buildDate string) error {
	zapLogger, err := logger.InitLogger(cfg.LogConfig.Level, cfg.LogConfig.Format, cfg.LogConfig.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot api: %w", err)
	}
	zapLogger.Info("Authorized on telegram", zap.String("username", botAPI.Self.UserName))

	aiClient := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, zapLogger)

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	db, err := storage.InitDB(cfg.DBPath, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	botUsername := cfg.BotUsername
	if botAPI.Self.UserName != "" {
		botUsername = botAPI.Self.UserName
	}

	deps := BotDeps{
		Bot:         botAPI,
		BotUsername: botUsername,
		AI:          aiClient,
		Files:       NewTelegramFileFetcher(botAPI),
		Store:       storage.NewStore(db, zapLogger),
		Ledger:      storage.NewLedger(db, zapLogger),
		Pricing: pricing.Table{
			ChatMessage:      cfg.Pricing.ChatMessage,
			Image:            cfg.Pricing.Image,
			VoiceRecognition: cfg.Pricing.VoiceRecognition,
			VoiceSynthesis:   cfg.Pricing.VoiceSynthesis,
		},
		I18n:      i18nManager,
		Logger:    zapLogger,
		Config:    cfg,
		Auth:      auth.NewAuthorizer(cfg.Admins.AdminUserIDs),
		Version:   version,
		BuildDate: buildDate,
		locks:     newUserLocks(),
	}

	if err := setBotCommands(deps); err != nil {
		zapLogger.Warn("Failed to register bot commands", zap.Error(err))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := botAPI.GetUpdatesChan(updateConfig)

	zapLogger.Info("Bot started", zap.String("version", version))
	for update := range updates {
		go func(upd tgbotapi.Update) {
			HandleUpdate(upd, deps)
		}(update)
	}
	return nil
}

// setBotCommands registers the command menu, once per bundled language so
// the client shows localized hints.
func setBotCommands(deps BotDeps) error {
	descriptions := map[string][6]string{
		"en": {"Start the bot", "Settings menu", "Check credit balance", "Your account", "New conversation", "Voice settings"},
		"ru": {"Запустить бота", "Меню настроек", "Проверить баланс кредитов", "Личный кабинет", "Новый диалог", "Настройки голоса"},
		"pl": {"Uruchom bota", "Menu ustawień", "Sprawdź saldo kredytów", "Twoje konto", "Nowa rozmowa", "Ustawienia głosu"},
	}

	for lang, desc := range descriptions {
		commands := []tgbotapi.BotCommand{
			{Command: "start", Description: desc[0]},
			{Command: "menu", Description: desc[1]},
			{Command: "balance", Description: desc[2]},
			{Command: "profile", Description: desc[3]},
			{Command: "new", Description: desc[4]},
			{Command: "voice", Description: desc[5]},
		}
		cfg := tgbotapi.NewSetMyCommandsWithScopeAndLanguage(
			tgbotapi.NewBotCommandScopeDefault(), lang, commands...)
		if _, err := deps.Bot.Request(cfg); err != nil {
			return fmt.Errorf("failed to set commands for %s: %w", lang, err)
		}
	}
	return nil
}
