package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store covers user lifecycle and settings. Ledger owns the credits column;
// everything else on the user row is managed here.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("store")}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// GetUser returns the user row, or nil without error when the user is unknown.
func (s *Store) GetUser(userID int64) (*User, error) {
	var user User
	err := s.db.First(&user, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &user, nil
}

// CreateUser registers a new account with the starter balance and a fresh
// referral code.
func (s *Store) CreateUser(userID int64, initialCredits int64, model, language string, codeLength int) (*User, error) {
	code, err := s.generateReferralCode(userID, codeLength)
	if err != nil {
		return nil, err
	}

	user := &User{
		UserID:           userID,
		Credits:          initialCredits,
		Mode:             "assistant",
		Model:            model,
		State:            StateChat,
		Language:         language,
		Voice:            "alloy",
		VoiceLanguage:    language,
		StreamingEnabled: true,
		ReferralCode:     code,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", userID, err)
	}
	s.logger.Info("User created", zap.Int64("user_id", userID), zap.Int64("initial_credits", initialCredits))
	return user, nil
}

const referralCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateReferralCode builds "ref<userID>_<random suffix>". Uniqueness is
// checked by lookup with a handful of retries; collisions are practically
// impossible at this alphabet size but cheap to guard against.
func (s *Store) generateReferralCode(userID int64, codeLength int) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		suffix := make([]byte, codeLength)
		for i := range suffix {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCharset))))
			if err != nil {
				return "", fmt.Errorf("failed to generate referral code: %w", err)
			}
			suffix[i] = referralCharset[n.Int64()]
		}
		code := fmt.Sprintf("ref%d_%s", userID, suffix)

		var count int64
		if err := s.db.Model(&User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check referral code uniqueness: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique referral code")
}

// UserByReferralCode resolves a referral code to its owner, nil when unknown.
func (s *Store) UserByReferralCode(code string) (*User, error) {
	var user User
	err := s.db.First(&user, "referral_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	return &user, nil
}

// SetInvitedBy records the inviter, write-once.
func (s *Store) SetInvitedBy(userID, inviterID int64) error {
	res := s.db.Model(&User{}).
		Where("user_id = ? AND invited_by IS NULL", userID).
		Update("invited_by", inviterID)
	if res.Error != nil {
		return fmt.Errorf("failed to set inviter for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d already has an inviter", userID)
	}
	return nil
}

func (s *Store) SetState(userID int64, state string) error {
	return s.updateField(userID, "state", state)
}

// SetMode switches the chat mode and clears the conversation context, the
// old context was produced under a different system prompt.
func (s *Store) SetMode(userID int64, mode string) error {
	if err := s.updateField(userID, "mode", mode); err != nil {
		return err
	}
	if err := s.ClearHistory(userID); err != nil {
		return err
	}
	return s.SetState(userID, StateChat)
}

func (s *Store) SetModel(userID int64, model string) error {
	return s.updateField(userID, "model", model)
}

// SetLanguage changes the interface language. Unless the user pinned the
// recognition language from the voice menu, it follows along. Returns
// whether the recognition language was synchronized.
func (s *Store) SetLanguage(userID int64, language string) (bool, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, fmt.Errorf("user %d not found", userID)
	}

	updates := map[string]interface{}{"language": language}
	synced := false
	if !user.VoiceLanguagePinned && user.VoiceLanguage != language {
		updates["voice_language"] = language
		synced = true
	}
	if err := s.db.Model(&User{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to set language for user %d: %w", userID, err)
	}
	return synced, nil
}

func (s *Store) SetVoiceEnabled(userID int64, enabled bool) error {
	return s.updateField(userID, "voice_enabled", enabled)
}

func (s *Store) SetVoice(userID int64, voice string) error {
	return s.updateField(userID, "voice", voice)
}

// SetVoiceLanguage sets the recognition language explicitly and pins it, so
// later interface-language changes leave it alone.
func (s *Store) SetVoiceLanguage(userID int64, language string) error {
	err := s.db.Model(&User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"voice_language":        language,
		"voice_language_pinned": true,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to set voice language for user %d: %w", userID, err)
	}
	return nil
}

func (s *Store) SetStreaming(userID int64, enabled bool) error {
	return s.updateField(userID, "streaming_enabled", enabled)
}

func (s *Store) updateField(userID int64, column string, value interface{}) error {
	err := s.db.Model(&User{}).Where("user_id = ?", userID).Update(column, value).Error
	if err != nil {
		return fmt.Errorf("failed to update %s for user %d: %w", column, userID, err)
	}
	return nil
}

func (s *Store) CountUsers() (int64, error) {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountInvited returns how many accounts name userID as their inviter.
func (s *Store) CountInvited(userID int64) (int64, error) {
	var count int64
	if err := s.db.Model(&User{}).Where("invited_by = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count invited users: %w", err)
	}
	return count, nil
}

// AllUserIDs returns every registered user id, for broadcasts.
func (s *Store) AllUserIDs() ([]int64, error) {
	var ids []int64
	if err := s.db.Model(&User{}).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}
