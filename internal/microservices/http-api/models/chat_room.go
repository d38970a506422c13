package models

import "time"

// ChatRoom is the single chat channel bound to a job.
// IsReadOnly only ever goes false -> true.
type ChatRoom struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID      int64     `gorm:"not null;uniqueIndex:ux_chat_rooms_job_id" json:"job_id"`
	IsReadOnly bool      `gorm:"not null;default:false" json:"is_read_only"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Job *Job `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}
