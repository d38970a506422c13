package repository

import (
	"context"
	"errors"
	"fmt"

	"jobchat/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// ChatRoomRepository persists rooms and their participant rows
type ChatRoomRepository interface {
	GetByID(ctx context.Context, roomID int64) (*models.ChatRoom, error)
	GetByJobID(ctx context.Context, jobID int64) (*models.ChatRoom, error)
	CreateForJob(ctx context.Context, jobID int64, owner, crew models.Identity) (*models.ChatRoom, error)
	MarkReadOnly(ctx context.Context, jobID int64) (bool, error)
	IsParticipant(ctx context.Context, roomID int64, identity models.Identity) (bool, error)
	GetParticipant(ctx context.Context, roomID int64, identity models.Identity) (*models.ChatParticipant, error)
}

type chatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: db}
}

// GetByID returns gorm.ErrRecordNotFound when the room does not exist
func (r *chatRoomRepository) GetByID(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByJobID returns gorm.ErrRecordNotFound when the job has no room yet
func (r *chatRoomRepository) GetByJobID(ctx context.Context, jobID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateForJob inserts the room and both participant rows in one transaction.
// If another request already created the job's room, ErrRoomExists is returned
// and nothing from this call is committed.
func (r *chatRoomRepository) CreateForJob(ctx context.Context, jobID int64, owner, crew models.Identity) (*models.ChatRoom, error) {
	if owner.Kind() != models.ParticipantTaskOwner || crew.Kind() != models.ParticipantCrew {
		return nil, fmt.Errorf("create chat room: participants must be one task owner and one crew")
	}

	room := &models.ChatRoom{JobID: jobID, IsReadOnly: false}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrRoomExists
			}
			return fmt.Errorf("insert chat room: %w", err)
		}

		participants := []models.ChatParticipant{
			models.NewParticipant(room.ID, owner),
			models.NewParticipant(room.ID, crew),
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("insert chat participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// MarkReadOnly latches the job's room read-only. It reports false when the job has no room.
func (r *chatRoomRepository) MarkReadOnly(ctx context.Context, jobID int64) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.ChatRoom
		if err := tx.Where("job_id = ?", jobID).First(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("find chat room: %w", err)
		}
		found = true
		if room.IsReadOnly {
			return nil
		}
		if err := tx.Model(&room).Update("is_read_only", true).Error; err != nil {
			return fmt.Errorf("latch chat room read-only: %w", err)
		}
		return nil
	})
	return found, err
}

func (r *chatRoomRepository) IsParticipant(ctx context.Context, roomID int64, identity models.Identity) (bool, error) {
	if !identity.Valid() {
		return false, nil
	}
	var count int64
	err := r.participantQuery(ctx, roomID, identity).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check chat participant: %w", err)
	}
	return count > 0, nil
}

// GetParticipant returns gorm.ErrRecordNotFound for non-members
func (r *chatRoomRepository) GetParticipant(ctx context.Context, roomID int64, identity models.Identity) (*models.ChatParticipant, error) {
	if !identity.Valid() {
		return nil, gorm.ErrRecordNotFound
	}
	var participant models.ChatParticipant
	if err := r.participantQuery(ctx, roomID, identity).First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *chatRoomRepository) participantQuery(ctx context.Context, roomID int64, identity models.Identity) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_type = ?", roomID, identity.Kind())
	if identity.Kind() == models.ParticipantTaskOwner {
		return q.Where("owner_user_id = ?", identity.ID())
	}
	return q.Where("crew_id = ?", identity.ID())
}
