package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

// JobService is the slice of the job lifecycle that chat reacts to.
// Only the job's task owner may move it or assign its crew.
type JobService interface {
	GetJob(ctx context.Context, jobID int64) (*models.Job, error)
	UpdateStatus(ctx context.Context, jobID int64, actor models.Identity, status models.JobStatus) (*models.Job, error)
	AssignCrew(ctx context.Context, jobID int64, actor models.Identity, crewID int64) (*models.Job, error)
}

type jobService struct {
	jobRepo repository.JobRepository
	onClose JobClosedHook
	logger  *slog.Logger
}

// NewJobService wires the lifecycle to onClose, which may be nil.
func NewJobService(jobRepo repository.JobRepository, onClose JobClosedHook, logger *slog.Logger) JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobService{jobRepo: jobRepo, onClose: onClose, logger: logger}
}

func (s *jobService) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}

// UpdateStatus moves the job and, on "closed", latches its chat read-only.
// The hook runs after the status commit; a hook failure is returned but the
// status change stays.
func (s *jobService) UpdateStatus(ctx context.Context, jobID int64, actor models.Identity, status models.JobStatus) (*models.Job, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.requireOwner(ctx, jobID, actor); err != nil {
		return nil, err
	}
	if err := s.jobRepo.UpdateStatus(ctx, jobID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	s.logger.Info("job_status_updated", "job_id", jobID, "status", status)

	if status == models.JobStatusClosed && s.onClose != nil {
		if err := s.onClose.ApplyJobClosed(ctx, jobID); err != nil {
			s.logger.Error("job_closed_hook_failed", "job_id", jobID, "error", err)
			return nil, err
		}
	}
	return s.GetJob(ctx, jobID)
}

func (s *jobService) AssignCrew(ctx context.Context, jobID int64, actor models.Identity, crewID int64) (*models.Job, error) {
	if crewID <= 0 {
		return nil, ErrInvalidCrew
	}
	if err := s.requireOwner(ctx, jobID, actor); err != nil {
		return nil, err
	}
	if err := s.jobRepo.UpdateAssignment(ctx, jobID, &crewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	s.logger.Info("job_crew_assigned", "job_id", jobID, "crew_id", crewID)
	return s.GetJob(ctx, jobID)
}

func (s *jobService) requireOwner(ctx context.Context, jobID int64, actor models.Identity) error {
	if !actor.Valid() {
		return ErrUnauthorized
	}
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if actor.Kind() != models.ParticipantTaskOwner || actor.ID() != job.OwnerID {
		s.logger.Warn("job_update_refused", "job_id", jobID, "actor", actor.String())
		return ErrNotJobOwner
	}
	return nil
}
