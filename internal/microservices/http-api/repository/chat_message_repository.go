package repository

import (
	"context"
	"fmt"

	"jobchat/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error)
	// ListBefore returns up to limit messages newest first. beforeID <= 0 means no cursor.
	ListBefore(ctx context.Context, roomID, beforeID int64, limit int) ([]models.ChatMessage, error)
}

type chatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

func (r *chatMessageRepository) GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.WithContext(ctx).First(&message, messageID).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListBefore orders by (created_at DESC, id DESC); id breaks timestamp ties
// and is the only thing the cursor compares against.
func (r *chatMessageRepository) ListBefore(ctx context.Context, roomID, beforeID int64, limit int) ([]models.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("chat_room_id = ?", roomID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var messages []models.ChatMessage
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
