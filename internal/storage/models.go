package storage

import "time"

// User holds the account row: ledger balance, conversation settings and
// referral linkage. State is persisted so an interaction survives restarts.
type User struct {
	UserID              int64  `gorm:"primaryKey"`
	Credits             int64  `gorm:"not null;default:0"`
	Mode                string `gorm:"not null;default:'assistant'"`
	Model               string `gorm:"not null"`
	State               string `gorm:"not null;default:'chat'"`
	Language            string `gorm:"not null;default:'en'"`
	VoiceEnabled        bool   `gorm:"not null;default:false"`
	Voice               string `gorm:"not null;default:'alloy'"`
	VoiceLanguage       string `gorm:"not null;default:'en'"`
	VoiceLanguagePinned bool   `gorm:"not null;default:false"`
	StreamingEnabled    bool   `gorm:"not null;default:true"`
	ReferralCode        string `gorm:"index"`
	InvitedBy           *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Interaction states stored on the user row.
const (
	StateChat                = "chat"
	StateAwaitingImagePrompt = "awaiting_image_prompt"
)

// HistoryMessage is one turn of a user's conversation context.
type HistoryMessage struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	Role      string `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}
