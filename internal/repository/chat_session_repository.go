package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/secret-deus/RAG-Chat/internal/model"
)

type ChatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

func (r *ChatSessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (r *ChatSessionRepository) List() ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	if err := r.db.Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *ChatSessionRepository) GetByID(id uint) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

func (r *ChatSessionRepository) UpdateTitle(id uint, title string) error {
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("title", title).Error; err != nil {
		return fmt.Errorf("update chat session title failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete chat session failed: %w", err)
	}
	return nil
}
