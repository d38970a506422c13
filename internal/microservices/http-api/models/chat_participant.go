package models

import "time"

// ChatParticipant grants one identity access to one room.
// Exactly one of OwnerUserID / CrewID is set, matching ParticipantType.
type ChatParticipant struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatRoomID      int64           `gorm:"not null;index:ix_chat_participants_chat_room_id;uniqueIndex:ux_chat_participants_room_owner,priority:1;uniqueIndex:ux_chat_participants_room_crew,priority:1" json:"chat_room_id"`
	ParticipantType ParticipantType `gorm:"type:varchar(16);not null;check:ck_chat_participants_type_ref,(participant_type = 'task_owner' AND owner_user_id IS NOT NULL AND crew_id IS NULL) OR (participant_type = 'crew' AND crew_id IS NOT NULL AND owner_user_id IS NULL)" json:"participant_type"`
	OwnerUserID     *int64          `gorm:"uniqueIndex:ux_chat_participants_room_owner,priority:2,where:owner_user_id IS NOT NULL;index" json:"owner_user_id,omitempty"`
	CrewID          *int64          `gorm:"uniqueIndex:ux_chat_participants_room_crew,priority:2,where:crew_id IS NOT NULL;index" json:"crew_id,omitempty"`
	JoinedAt        time.Time       `gorm:"autoCreateTime" json:"joined_at"`

	ChatRoom *ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// NewParticipant builds the membership row for identity in room.
func NewParticipant(roomID int64, identity Identity) ChatParticipant {
	owner, crew := identity.Columns()
	return ChatParticipant{
		ChatRoomID:      roomID,
		ParticipantType: identity.Kind(),
		OwnerUserID:     owner,
		CrewID:          crew,
	}
}
