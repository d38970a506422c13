package models

import "time"

// MessageRead records the first time a participant saw a message.
// The (message, participant) pair is unique and ReadAt is never overwritten.
type MessageRead struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID     int64     `gorm:"not null;uniqueIndex:ux_message_reads_message_participant,priority:1;index" json:"message_id"`
	ParticipantID int64     `gorm:"not null;uniqueIndex:ux_message_reads_message_participant,priority:2;index" json:"participant_id"`
	ReadAt        time.Time `gorm:"autoCreateTime" json:"read_at"`

	Message     *ChatMessage     `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE;" json:"-"`
	Participant *ChatParticipant `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (MessageRead) TableName() string {
	return "message_reads"
}
