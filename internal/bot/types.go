package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/auth"
	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/i18n"
	"github.com/szmergonn/telegram-gpt-bot/internal/pricing"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

// TelegramClient is the subset of the Telegram API the handlers use.
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type TelegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// AIGateway is the capability surface of the OpenAI client used by the
// orchestrators. *openai.Client satisfies it.
type AIGateway interface {
	CreateChatCompletion(ctx context.Context, model string, messages []openai.ChatMessage, maxTokens int) (string, error)
	CreateChatCompletionStream(ctx context.Context, model string, messages []openai.ChatMessage, maxTokens int, onDelta func(string) error) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// FileFetcher downloads Telegram file content by file id.
type FileFetcher interface {
	GetFileBytes(fileID string) ([]byte, error)
}

// BotDeps carries everything the handlers need.
type BotDeps struct {
	Bot         TelegramClient
	BotUsername string
	AI          AIGateway
	Files       FileFetcher
	Store       *storage.Store
	Ledger      *storage.Ledger
	Pricing     pricing.Table
	I18n        *i18n.Manager
	Logger      *zap.Logger
	Config      *config.Config
	Auth        *auth.Authorizer
	Version     string
	BuildDate   string

	// locks serializes update handling per user so a turn's balance check
	// and debit never interleave with another update from the same user.
	locks *userLocks
}

// telegramFileFetcher downloads files through the Bot API file endpoint.
type telegramFileFetcher struct {
	api *tgbotapi.BotAPI
}

func NewTelegramFileFetcher(api *tgbotapi.BotAPI) FileFetcher {
	return &telegramFileFetcher{api: api}
}

func (f *telegramFileFetcher) GetFileBytes(fileID string) ([]byte, error) {
	file, err := f.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}
	resp, err := http.Get(file.Link(f.api.Token))
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}
