package repository

import (
	"context"
	"fmt"

	"jobchat/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// JobRepository is the read/lifecycle surface of the jobs table that chat depends on.
// Full job CRUD lives in the job service and is not part of this module.
type JobRepository interface {
	GetByID(ctx context.Context, jobID int64) (*models.Job, error)
	UpdateAssignment(ctx context.Context, jobID int64, crewID *int64) error
	UpdateStatus(ctx context.Context, jobID int64, status models.JobStatus) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// GetByID returns gorm.ErrRecordNotFound when the job does not exist
func (r *jobRepository) GetByID(ctx context.Context, jobID int64) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) UpdateAssignment(ctx context.Context, jobID int64, crewID *int64) error {
	return r.updateColumn(ctx, jobID, "assigned_crew_id", crewID)
}

func (r *jobRepository) UpdateStatus(ctx context.Context, jobID int64, status models.JobStatus) error {
	return r.updateColumn(ctx, jobID, "status", status)
}

func (r *jobRepository) updateColumn(ctx context.Context, jobID int64, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("update job %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
