package models

import "time"

// ChatMessage is immutable once written. ID is the ordering key.
type ChatMessage struct {
	ID                int64           `gorm:"primaryKey;autoIncrement;index:ix_chat_messages_room_created_id,priority:3" json:"id"`
	ChatRoomID        int64           `gorm:"not null;index:ix_chat_messages_room_created_id,priority:1" json:"chat_room_id"`
	SenderType        ParticipantType `gorm:"type:varchar(16);not null;check:ck_chat_messages_sender_ref,(sender_type = 'task_owner' AND sender_owner_user_id IS NOT NULL AND sender_crew_id IS NULL) OR (sender_type = 'crew' AND sender_crew_id IS NOT NULL AND sender_owner_user_id IS NULL) OR (sender_type = 'system' AND sender_owner_user_id IS NULL AND sender_crew_id IS NULL)" json:"sender_type"`
	SenderOwnerUserID *int64          `json:"sender_owner_user_id,omitempty"`
	SenderCrewID      *int64          `json:"sender_crew_id,omitempty"`
	Content           string          `gorm:"type:text;not null" json:"content"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index:ix_chat_messages_room_created_id,priority:2" json:"created_at"`

	ChatRoom *ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewMessage builds an unsaved message sent by identity.
func NewMessage(roomID int64, sender Identity, content string) ChatMessage {
	owner, crew := sender.Columns()
	return ChatMessage{
		ChatRoomID:        roomID,
		SenderType:        sender.Kind(),
		SenderOwnerUserID: owner,
		SenderCrewID:      crew,
		Content:           content,
	}
}
