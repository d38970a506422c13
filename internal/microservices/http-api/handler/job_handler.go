package handler

import (
	"net/http"

	"jobchat/internal/microservices/http-api/dto"
	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// JobHandler exposes the parts of the job lifecycle chat depends on.
type JobHandler struct {
	jobService service.JobService
}

func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
	}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("/:job_id", h.Get)
		jobs.PATCH("/:job_id/status", h.UpdateStatus)
		jobs.PATCH("/:job_id/assignment", h.AssignCrew)
	}
}

// Get
// GET /api/v1/jobs/:job_id
func (h *JobHandler) Get(c *gin.Context) {
	jobID, ok := parseIDParam(c, "job_id", "job")
	if !ok {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToJobResponse(job))
}

// UpdateStatus moves the job through its lifecycle; "closed" makes its chat read-only.
// Only the task owner may call it.
// PATCH /api/v1/jobs/:job_id/status
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	jobID, ok := parseIDParam(c, "job_id", "job")
	if !ok {
		return
	}

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateJobStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobService.UpdateStatus(c.Request.Context(), jobID, identity, models.JobStatus(req.Status))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToJobResponse(job))
}

// AssignCrew puts a crew member on the job, task owner only
// PATCH /api/v1/jobs/:job_id/assignment
func (h *JobHandler) AssignCrew(c *gin.Context) {
	jobID, ok := parseIDParam(c, "job_id", "job")
	if !ok {
		return
	}

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req dto.AssignCrewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobService.AssignCrew(c.Request.Context(), jobID, identity, req.CrewID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToJobResponse(job))
}
