package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/szmergonn/telegram-gpt-bot/internal/auth"
	"github.com/szmergonn/telegram-gpt-bot/internal/config"
	"github.com/szmergonn/telegram-gpt-bot/internal/i18n"
	"github.com/szmergonn/telegram-gpt-bot/internal/pricing"
	"github.com/szmergonn/telegram-gpt-bot/internal/storage"
	"github.com/szmergonn/telegram-gpt-bot/pkg/openai"
)

// fakeTelegram records outgoing traffic and serves scripted errors.
type fakeTelegram struct {
	mu            sync.Mutex
	sent          []tgbotapi.Chattable
	requests      []tgbotapi.Chattable
	sendErr       error
	requestErrs   []error // consumed one per Request call, nil entries succeed
	nextMessageID int
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextMessageID++
	return tgbotapi.Message{MessageID: f.nextMessageID}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if len(f.requestErrs) > 0 {
		err = f.requestErrs[0]
		f.requestErrs = f.requestErrs[1:]
	}
	if err != nil {
		return nil, err
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	return tgbotapi.File{FileID: config.FileID}, nil
}

// editCount counts the message edits among recorded requests.
func (f *fakeTelegram) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if _, ok := r.(tgbotapi.EditMessageTextConfig); ok {
			n++
		}
	}
	return n
}

// lastEditText returns the payload of the most recent edit.
func (f *fakeTelegram) lastEditText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if edit, ok := f.requests[i].(tgbotapi.EditMessageTextConfig); ok {
			return edit.Text
		}
	}
	return ""
}

// sentTexts returns the plain message texts sent so far.
func (f *fakeTelegram) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, s := range f.sent {
		if msg, ok := s.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// fakeAI scripts the capability surface with function fields.
type fakeAI struct {
	chatFn       func(model string, messages []openai.ChatMessage) (string, error)
	chatStreamFn func(messages []openai.ChatMessage, onDelta func(string) error) (string, error)
	imageFn      func(prompt string) (string, error)
	transcribeFn func(audio []byte, language string) (string, error)
	synthesizeFn func(text, voice string) ([]byte, error)
}

func (f *fakeAI) CreateChatCompletion(_ context.Context, model string, messages []openai.ChatMessage, _ int) (string, error) {
	if f.chatFn == nil {
		return "ok", nil
	}
	return f.chatFn(model, messages)
}

func (f *fakeAI) CreateChatCompletionStream(_ context.Context, _ string, messages []openai.ChatMessage, _ int, onDelta func(string) error) (string, error) {
	if f.chatStreamFn == nil {
		return "ok", nil
	}
	return f.chatStreamFn(messages, onDelta)
}

func (f *fakeAI) GenerateImage(_ context.Context, prompt string) (string, error) {
	if f.imageFn == nil {
		return "https://example.com/image.png", nil
	}
	return f.imageFn(prompt)
}

func (f *fakeAI) Transcribe(_ context.Context, audio []byte, language string) (string, error) {
	if f.transcribeFn == nil {
		return "transcript", nil
	}
	return f.transcribeFn(audio, language)
}

func (f *fakeAI) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	if f.synthesizeFn == nil {
		return []byte("mp3"), nil
	}
	return f.synthesizeFn(text, voice)
}

type fakeFiles struct {
	data []byte
	err  error
}

func (f *fakeFiles) GetFileBytes(string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func testConfig() *config.Config {
	return &config.Config{
		BotToken:        "test-token",
		BotUsername:     "testbot",
		OpenAIKey:       "test-key",
		DBPath:          "unused",
		DefaultLanguage: "en",
		Admins:          config.AdminConfig{AdminUserIDs: []int64{999}},
		Credits: config.CreditsConfig{
			InitialBalance:       7,
			ReferralInviterBonus: 5,
			ReferralNewUserBonus: 2,
			ReferralCodeLength:   8,
		},
		Pricing: config.PricingConfig{ChatMessage: 1, Image: 5, VoiceRecognition: 2, VoiceSynthesis: 3},
		Chat:    config.ChatConfig{HistoryLimit: 10, MaxTokens: 1000, VoiceMaxTokens: 500, MaxVoiceDuration: 300},
		Models: []config.ModelConfig{
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
			{ID: "gpt-4o", Name: "GPT-4o"},
		},
	}
}

func newTestDeps(t *testing.T) (BotDeps, *fakeTelegram, *fakeAI) {
	t.Helper()
	logger := zap.NewNop()

	db, err := storage.InitDB(filepath.Join(t.TempDir(), "bot.db"), logger)
	require.NoError(t, err)

	manager, err := i18n.NewManager("en", logger)
	require.NoError(t, err)

	cfg := testConfig()
	tg := &fakeTelegram{}
	ai := &fakeAI{}

	deps := BotDeps{
		Bot:         tg,
		BotUsername: cfg.BotUsername,
		AI:          ai,
		Files:       &fakeFiles{data: []byte("ogg")},
		Store:       storage.NewStore(db, logger),
		Ledger:      storage.NewLedger(db, logger),
		Pricing: pricing.Table{
			ChatMessage:      cfg.Pricing.ChatMessage,
			Image:            cfg.Pricing.Image,
			VoiceRecognition: cfg.Pricing.VoiceRecognition,
			VoiceSynthesis:   cfg.Pricing.VoiceSynthesis,
		},
		I18n:      manager,
		Logger:    logger,
		Config:    cfg,
		Auth:      auth.NewAuthorizer(cfg.Admins.AdminUserIDs),
		Version:   "test",
		BuildDate: "test",
		locks:     newUserLocks(),
	}
	return deps, tg, ai
}

func createTestUser(t *testing.T, deps BotDeps, userID int64) *storage.User {
	t.Helper()
	user, err := deps.Store.CreateUser(userID,
		deps.Config.Credits.InitialBalance,
		deps.Config.DefaultModel(),
		"en",
		deps.Config.Credits.ReferralCodeLength,
	)
	require.NoError(t, err)
	return user
}

func balanceOf(t *testing.T, deps BotDeps, userID int64) int64 {
	t.Helper()
	balance, err := deps.Ledger.Balance(userID)
	require.NoError(t, err)
	return balance
}

// newTextMessage builds a plain text message from userID's private chat.
func newTextMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Alice", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
}

// newCommandMessage builds a message whose entities make IsCommand work.
func newCommandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, FirstName: "Alice", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}
