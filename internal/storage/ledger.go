package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger manages the prepaid credit balances. All mutations run inside a
// transaction with the user row locked, serialized by a process-wide mutex
// on top of that (SQLite allows a single writer anyway).
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
	mu     sync.Mutex
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger.Named("ledger")}
}

// Balance returns the current balance. An unknown user reads as zero; a
// persistence failure is returned as an error so callers never mistake it
// for an empty balance.
func (l *Ledger) Balance(userID int64) (int64, error) {
	var user User
	err := l.db.Select("credits").First(&user, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		l.logger.Error("Failed to read balance", zap.Int64("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}
	return user.Credits, nil
}

// Debit subtracts amount from the balance, clamping at zero. It returns the
// balance after the operation; on persistence failure the balance is left
// untouched and the pre-operation value is returned.
func (l *Ledger) Debit(userID int64, amount int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var after int64
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "user_id = ?", userID).Error; err != nil {
			return err
		}
		after = user.Credits - amount
		if after < 0 {
			after = 0
		}
		return tx.Model(&User{}).Where("user_id = ?", userID).
			Update("credits", after).Error
	})
	if err != nil {
		l.logger.Error("Debit failed", zap.Int64("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
		balance, _ := l.Balance(userID)
		return balance
	}
	return after
}

// DebitStrict subtracts amount and reports whether the debit was applied.
// Unless allowNegative is set, a debit that would push the balance below
// zero is refused and the balance is left untouched.
func (l *Ledger) DebitStrict(userID int64, amount int64, allowNegative bool) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var after int64
	applied := false
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "user_id = ?", userID).Error; err != nil {
			return err
		}
		after = user.Credits - amount
		if after < 0 && !allowNegative {
			after = user.Credits
			return nil
		}
		applied = true
		return tx.Model(&User{}).Where("user_id = ?", userID).
			Update("credits", after).Error
	})
	if err != nil {
		l.logger.Error("Strict debit failed", zap.Int64("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
		balance, _ := l.Balance(userID)
		return balance, false
	}
	return after, applied
}

// Credit adds amount to the balance and returns the new value.
func (l *Ledger) Credit(userID int64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must not be negative: %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var after int64
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "user_id = ?", userID).Error; err != nil {
			return err
		}
		after = user.Credits + amount
		return tx.Model(&User{}).Where("user_id = ?", userID).
			Update("credits", after).Error
	})
	if err != nil {
		l.logger.Error("Credit failed", zap.Int64("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
		return 0, fmt.Errorf("failed to credit user %d: %w", userID, err)
	}
	return after, nil
}
