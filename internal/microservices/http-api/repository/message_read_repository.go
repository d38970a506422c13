package repository

import (
	"context"
	"fmt"

	"jobchat/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageReadRepository keeps per-message read markers
type MessageReadRepository interface {
	// MarkRead inserts the marker if missing and reports whether a new row was written.
	MarkRead(ctx context.Context, messageID, participantID int64) (bool, error)
	CountUnread(ctx context.Context, roomID int64, participant *models.ChatParticipant) (int64, error)
}

type messageReadRepository struct {
	db *gorm.DB
}

func NewMessageReadRepository(db *gorm.DB) MessageReadRepository {
	return &messageReadRepository{db: db}
}

func (r *messageReadRepository) MarkRead(ctx context.Context, messageID, participantID int64) (bool, error) {
	read := models.MessageRead{MessageID: messageID, ParticipantID: participantID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "participant_id"}},
			DoNothing: true,
		}).
		Create(&read)
	if result.Error != nil {
		return false, fmt.Errorf("mark message read: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountUnread counts messages in the room that the participant did not send
// and has no read marker for.
func (r *messageReadRepository) CountUnread(ctx context.Context, roomID int64, participant *models.ChatParticipant) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("chat_room_id = ?", roomID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = chat_messages.id AND mr.participant_id = ?)", participant.ID)

	switch participant.ParticipantType {
	case models.ParticipantTaskOwner:
		q = q.Where("NOT (sender_type = ? AND sender_owner_user_id = ?)", models.ParticipantTaskOwner, *participant.OwnerUserID)
	case models.ParticipantCrew:
		q = q.Where("NOT (sender_type = ? AND sender_crew_id = ?)", models.ParticipantCrew, *participant.CrewID)
	}

	var unread int64
	if err := q.Count(&unread).Error; err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return unread, nil
}
