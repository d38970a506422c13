package models

import "time"

// JobStatus is the lifecycle state of a job. Chat only cares about "closed".
type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusClosed     JobStatus = "closed"
)

// Valid reports whether s is one of the known lifecycle states
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusOpen, JobStatusInProgress, JobStatusClosed:
		return true
	}
	return false
}

// Job is the snapshot of a marketplace job the chat core reads.
// It is owned by the job service; chat never writes to it.
type Job struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID        int64     `gorm:"not null;index" json:"owner_id"`
	AssignedCrewID *int64    `gorm:"index" json:"assigned_crew_id,omitempty"`
	Title          string    `gorm:"type:text" json:"title"`
	Status         JobStatus `gorm:"type:varchar(32);not null;default:'open'" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// IsAssigned is true once a crew member has been put on the job
func (j *Job) IsAssigned() bool {
	return j.AssignedCrewID != nil && *j.AssignedCrewID > 0
}
