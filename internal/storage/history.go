package storage

import "fmt"

// AppendHistory adds one conversation turn. Role is "user" or "assistant".
func (s *Store) AppendHistory(userID int64, role, content string) error {
	msg := &HistoryMessage{UserID: userID, Role: role, Content: content}
	if err := s.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to append history for user %d: %w", userID, err)
	}
	return nil
}

// RecentHistory returns the newest limit turns in oldest-first order.
func (s *Store) RecentHistory(userID int64, limit int) ([]HistoryMessage, error) {
	var messages []HistoryMessage
	err := s.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for user %d: %w", userID, err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ClearHistory drops the whole conversation context.
func (s *Store) ClearHistory(userID int64) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&HistoryMessage{}).Error; err != nil {
		return fmt.Errorf("failed to clear history for user %d: %w", userID, err)
	}
	return nil
}
