package bot

import (
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// Minimum pause between message edits; Telegram throttles hard above
	// roughly one edit per second per chat.
	editInterval = 1500 * time.Millisecond
	// Edit payload cap, below Telegram's 4096 hard limit to leave room
	// for the truncation marker and the cost annotation.
	maxEditLength = 4000
)

// StreamSession renders one incrementally-arriving response into a single
// Telegram message: a placeholder first, throttled edits while content
// arrives, and a terminal edit with the authoritative text.
type StreamSession struct {
	bot       TelegramClient
	logger    *zap.Logger
	chatID    int64
	messageID int
	buffer    strings.Builder
	lastEdit  time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewStreamSession(bot TelegramClient, logger *zap.Logger, chatID int64) *StreamSession {
	return &StreamSession{
		bot:    bot,
		logger: logger.Named("stream"),
		chatID: chatID,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Start sends the placeholder message that all later edits target.
func (s *StreamSession) Start(placeholder string) error {
	sent, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, placeholder))
	if err != nil {
		return err
	}
	s.messageID = sent.MessageID
	s.lastEdit = s.now()
	return nil
}

// MessageID returns the id of the rendered message, 0 before Start.
func (s *StreamSession) MessageID() int {
	return s.messageID
}

// Push appends a chunk to the buffer and re-renders if the inter-edit
// interval has elapsed (or force is set). A failed edit never drops
// buffered content; the next push retries with the full buffer.
func (s *StreamSession) Push(chunk string, force bool) {
	s.buffer.WriteString(chunk)
	if !force && s.now().Sub(s.lastEdit) < editInterval {
		return
	}
	if s.safeEdit(s.buffer.String()) {
		s.lastEdit = s.now()
	}
}

// Buffer returns the accumulated text.
func (s *StreamSession) Buffer() string {
	return s.buffer.String()
}

// Finalize replaces whatever was rendered with the authoritative final text
// plus the cost annotation. The buffer is discarded: the capability result,
// not the render buffer, is what the user keeps.
func (s *StreamSession) Finalize(finalText, costLine string) bool {
	return s.safeEdit(finalText + costLine)
}

// safeEdit performs one message edit, absorbing the Telegram failure modes:
// rate limiting sleeps RetryAfter plus a margin and retries once,
// "message is not modified" counts as success, anything else is logged and
// reported as a failed render without aborting the stream.
func (s *StreamSession) safeEdit(text string) bool {
	if text == "" {
		return false
	}
	if runes := []rune(text); len(runes) > maxEditLength {
		text = string(runes[:maxEditLength]) + "..."
	}

	edit := tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)
	_, err := s.bot.Request(edit)
	if err == nil {
		return true
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		if strings.Contains(tgErr.Message, "message is not modified") {
			return true
		}
		if tgErr.RetryAfter > 0 {
			s.sleep(time.Duration(tgErr.RetryAfter)*time.Second + 100*time.Millisecond)
			if _, retryErr := s.bot.Request(edit); retryErr == nil {
				return true
			} else {
				var retryTgErr *tgbotapi.Error
				if errors.As(retryErr, &retryTgErr) && strings.Contains(retryTgErr.Message, "message is not modified") {
					return true
				}
				s.logger.Warn("Edit retry after rate limit failed",
					zap.Int64("chat_id", s.chatID),
					zap.Int("message_id", s.messageID),
					zap.Error(retryErr),
				)
				return false
			}
		}
	}

	s.logger.Warn("Message edit failed",
		zap.Int64("chat_id", s.chatID),
		zap.Int("message_id", s.messageID),
		zap.Error(err),
	)
	return false
}

// deltaBatcher groups upstream token deltas into render-worthy chunks: a
// batch is released once it holds at least three words or the incoming
// delta carries a sentence-terminal token.
type deltaBatcher struct {
	pending strings.Builder
}

func (b *deltaBatcher) add(delta string) (string, bool) {
	b.pending.WriteString(delta)
	if b.shouldFlush(delta) {
		return b.flush()
	}
	return "", false
}

func (b *deltaBatcher) shouldFlush(delta string) bool {
	if strings.ContainsAny(delta, ".!?\n") {
		return true
	}
	return len(strings.Fields(b.pending.String())) >= 3
}

func (b *deltaBatcher) flush() (string, bool) {
	if b.pending.Len() == 0 {
		return "", false
	}
	out := b.pending.String()
	b.pending.Reset()
	return out, true
}
