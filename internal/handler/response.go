package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"driverqueue/internal/middleware"
	"driverqueue/internal/repository"
	"driverqueue/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s request_id=%s status=%d: %v",
			c.Request.Method, c.FullPath(), middleware.GetRequestID(c.Request.Context()), code, err)
	}
	_ = c.Error(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// parseDriverID reads the :id path parameter.
func parseDriverID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidDriverID
	}
	return id, nil
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrDriverNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, repository.ErrValidation),
		errors.Is(err, service.ErrInvalidDriverID):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrDriverNotBusy),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrQueueChanged):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrNoActiveDriver):
		return http.StatusServiceUnavailable

	// Upstream messaging failure
	case errors.Is(err, service.ErrNotificationFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
