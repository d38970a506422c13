package handler_test

import (
	"context"
	"net/http"
	"testing"

	"jobchat/internal/microservices/http-api/handler"
	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobService) UpdateStatus(ctx context.Context, jobID int64, actor models.Identity, status models.JobStatus) (*models.Job, error) {
	args := m.Called(ctx, jobID, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobService) AssignCrew(ctx context.Context, jobID int64, actor models.Identity, crewID int64) (*models.Job, error) {
	args := m.Called(ctx, jobID, actor, crewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

var jobOwner = models.OwnerIdentity(1001)

func setupJobRouter(svc *MockJobService, identity models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(withIdentity(identity))
	handler.NewJobHandler(svc).RegisterRoutes(api)
	return r
}

func TestJobHandler_Get(t *testing.T) {
	svc := new(MockJobService)
	svc.On("GetJob", mock.Anything, int64(4)).Return(&models.Job{ID: 4, OwnerID: 1001, Status: models.JobStatusOpen}, nil)
	svc.On("GetJob", mock.Anything, int64(5)).Return(nil, service.ErrJobNotFound)
	r := setupJobRouter(svc, jobOwner)

	w := doJSON(r, http.MethodGet, "/api/v1/jobs/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"open"`)
	assert.Contains(t, w.Body.String(), `"assigned_crew_id":null`)

	w = doJSON(r, http.MethodGet, "/api/v1/jobs/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandler_UpdateStatus(t *testing.T) {
	svc := new(MockJobService)
	svc.On("UpdateStatus", mock.Anything, int64(4), jobOwner, models.JobStatusClosed).
		Return(&models.Job{ID: 4, Status: models.JobStatusClosed}, nil)
	svc.On("UpdateStatus", mock.Anything, int64(4), jobOwner, models.JobStatus("paused")).
		Return(nil, service.ErrInvalidStatus)
	r := setupJobRouter(svc, jobOwner)

	w := doJSON(r, http.MethodPatch, "/api/v1/jobs/4/status", map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"closed"`)

	w = doJSON(r, http.MethodPatch, "/api/v1/jobs/4/status", map[string]string{"status": "paused"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPatch, "/api/v1/jobs/4/status", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestJobHandler_AssignCrew(t *testing.T) {
	crewID := int64(1002)
	svc := new(MockJobService)
	svc.On("AssignCrew", mock.Anything, int64(4), jobOwner, crewID).
		Return(&models.Job{ID: 4, AssignedCrewID: &crewID, Status: models.JobStatusInProgress}, nil)
	r := setupJobRouter(svc, jobOwner)

	w := doJSON(r, http.MethodPatch, "/api/v1/jobs/4/assignment", map[string]int64{"crew_id": crewID})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assigned_crew_id":1002`)

	svc.AssertExpectations(t)
}

func TestJobHandler_RequiresTheOwner(t *testing.T) {
	crew := models.CrewIdentity(1002)
	svc := new(MockJobService)
	svc.On("UpdateStatus", mock.Anything, int64(4), crew, models.JobStatusClosed).
		Return(nil, service.ErrNotJobOwner)
	svc.On("AssignCrew", mock.Anything, int64(4), crew, int64(7)).
		Return(nil, service.ErrNotJobOwner)

	r := setupJobRouter(svc, crew)
	w := doJSON(r, http.MethodPatch, "/api/v1/jobs/4/status", map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(r, http.MethodPatch, "/api/v1/jobs/4/assignment", map[string]int64{"crew_id": 7})
	assert.Equal(t, http.StatusForbidden, w.Code)

	anonymous := setupJobRouter(svc, models.Identity{})
	w = doJSON(anonymous, http.MethodPatch, "/api/v1/jobs/4/status", map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	svc.AssertExpectations(t)
}
