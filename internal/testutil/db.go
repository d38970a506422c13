// Package testutil builds throwaway backends for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"jobchat/database"
	"jobchat/internal/microservices/http-api/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// The pool is pinned to one connection so the shared-cache database
// behaves like a single Postgres session under concurrent callers.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewRedis starts a miniredis instance and a client bound to it.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// SeedJob inserts a job owned by ownerID. crewID <= 0 leaves it unassigned.
func SeedJob(t testing.TB, db *gorm.DB, ownerID, crewID int64) *models.Job {
	t.Helper()

	job := &models.Job{OwnerID: ownerID, Title: fmt.Sprintf("job for owner %d", ownerID), Status: models.JobStatusOpen}
	if crewID > 0 {
		job.AssignedCrewID = &crewID
	}
	require.NoError(t, db.Create(job).Error)
	return job
}
