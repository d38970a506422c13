package handler

import (
	"errors"
	"net/http"
	"strconv"

	"jobchat/internal/microservices/http-api/middleware"
	"jobchat/internal/microservices/http-api/models"
	"jobchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service sentinels to status codes. Anything
// unrecognised is an infrastructure failure and is not echoed to the client.
func writeServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotJobOwner):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrChatUnavailable):
		status = http.StatusConflict
	case errors.Is(err, service.ErrRoomReadOnly):
		status = http.StatusLocked
	case errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCrew):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireIdentity writes 401 and returns false when no identity was resolved
func requireIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return models.Identity{}, false
	}
	return identity, true
}

func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}
