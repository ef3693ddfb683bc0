package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/secret-deus/RAG-Chat/internal/model"
)

type ChatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// Create inserts the message and bumps the owning session's updated_at so
// session listings order by recent activity.
func (r *ChatMessageRepository) Create(message *model.ChatMessage) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", message.SessionID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

// ListBySessionID returns a session's messages, oldest first.
func (r *ChatMessageRepository) ListBySessionID(sessionID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}

func (r *ChatMessageRepository) CountBySessionID(sessionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chat messages failed: %w", err)
	}
	return count, nil
}
