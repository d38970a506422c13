package dto

import (
	"time"

	"jobchat/internal/microservices/http-api/models"
)

// UpdateJobStatusDTO for PATCH /jobs/:job_id/status
type UpdateJobStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

// AssignCrewDTO for PATCH /jobs/:job_id/assignment
type AssignCrewDTO struct {
	CrewID int64 `json:"crew_id" binding:"required"`
}

type JobResponse struct {
	ID             int64            `json:"id"`
	OwnerID        int64            `json:"owner_id"`
	AssignedCrewID *int64           `json:"assigned_crew_id"`
	Title          string           `json:"title"`
	Status         models.JobStatus `json:"status"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func FromModelToJobResponse(job *models.Job) *JobResponse {
	return &JobResponse{
		ID:             job.ID,
		OwnerID:        job.OwnerID,
		AssignedCrewID: job.AssignedCrewID,
		Title:          job.Title,
		Status:         job.Status,
		UpdatedAt:      job.UpdatedAt,
	}
}
