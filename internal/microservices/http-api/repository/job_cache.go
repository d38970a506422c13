package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobchat/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

// cachedJobRepository puts a Redis side-cache in front of job reads.
// Redis trouble never fails a request: it is logged and the database answers.
type cachedJobRepository struct {
	next   JobRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedJobRepository wraps next. A nil client disables caching.
func NewCachedJobRepository(next JobRepository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) JobRepository {
	if rdb == nil {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedJobRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func jobCacheKey(jobID int64) string {
	return fmt.Sprintf("job:detail:%d", jobID)
}

// jobVersionKey is bumped on every mutation. Readers WATCH it so a snapshot
// loaded before an invalidation is never written back after it.
func jobVersionKey(jobID int64) string {
	return fmt.Sprintf("job:version:%d", jobID)
}

func (r *cachedJobRepository) GetByID(ctx context.Context, jobID int64) (*models.Job, error) {
	key := jobCacheKey(jobID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var job models.Job
		if jsonErr := json.Unmarshal(raw, &job); jsonErr == nil {
			return &job, nil
		}
		r.logger.Warn("job_cache_decode_failed", "job_id", jobID, "key", key)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		r.logger.Warn("job_cache_get_failed", "job_id", jobID, "error", err)
	}

	var (
		job   *models.Job
		dbErr error
	)
	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		job, dbErr = r.next.GetByID(ctx, jobID)
		if dbErr != nil {
			return nil
		}
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}, jobVersionKey(jobID))
	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("job_cache_set_skipped", "job_id", jobID, "reason", "invalidated during load")
	default:
		r.logger.Warn("job_cache_set_failed", "job_id", jobID, "error", err)
	}

	if job == nil && dbErr == nil {
		// redis failed before the database was consulted
		job, dbErr = r.next.GetByID(ctx, jobID)
	}
	if dbErr != nil {
		return nil, dbErr
	}
	return job, nil
}

func (r *cachedJobRepository) UpdateAssignment(ctx context.Context, jobID int64, crewID *int64) error {
	if err := r.next.UpdateAssignment(ctx, jobID, crewID); err != nil {
		return err
	}
	r.invalidate(ctx, jobID)
	return nil
}

func (r *cachedJobRepository) UpdateStatus(ctx context.Context, jobID int64, status models.JobStatus) error {
	if err := r.next.UpdateStatus(ctx, jobID, status); err != nil {
		return err
	}
	r.invalidate(ctx, jobID)
	return nil
}

// invalidate bumps the version before dropping the snapshot, which aborts
// any in-flight read-through for the same job.
func (r *cachedJobRepository) invalidate(ctx context.Context, jobID int64) {
	versionKey := jobVersionKey(jobID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, r.ttl)
		pipe.Del(ctx, jobCacheKey(jobID))
		return nil
	})
	if err != nil {
		r.logger.Warn("job_cache_invalidate_failed", "job_id", jobID, "error", err)
	}
}
