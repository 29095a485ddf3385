package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"driverqueue/internal/domain"
	"driverqueue/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	queueService  *service.QueueService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, queueService *service.QueueService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		queueService:  queueService,
	}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateStatusRequest is the HTTP request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Register handles POST /api/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), service.RegisterDriverRequest{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, driver)
}

// GetAll handles GET /api/drivers
// An optional ?status= filter narrows the list.
func (h *DriverHandler) GetAll(c *gin.Context) {
	var (
		drivers []*domain.Driver
		err     error
	)
	if status := c.Query("status"); status != "" {
		drivers, err = h.driverService.ListDriversByStatus(c.Request.Context(), domain.DriverStatus(status))
	} else {
		drivers, err = h.driverService.ListDrivers(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if drivers == nil {
		drivers = []*domain.Driver{}
	}
	respondJSON(c, http.StatusOK, drivers)
}

// GetDriver handles GET /api/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	id, err := parseDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	driver, err := h.driverService.GetDriver(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driver)
}

// SetStatus handles PATCH /api/drivers/:id/status
func (h *DriverHandler) SetStatus(c *gin.Context) {
	id, err := parseDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.queueService.SetDriverStatus(c.Request.Context(), id, domain.DriverStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driver)
}

// Activate handles POST /api/drivers/:id/activate
func (h *DriverHandler) Activate(c *gin.Context) {
	h.transition(c, h.queueService.ActivateDriver)
}

// Deactivate handles POST /api/drivers/:id/deactivate
func (h *DriverHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.queueService.DeactivateDriver)
}

// Return handles POST /api/drivers/:id/return
func (h *DriverHandler) Return(c *gin.Context) {
	h.transition(c, h.queueService.ReturnDriver)
}

func (h *DriverHandler) transition(c *gin.Context, apply func(ctx context.Context, id int64) (*domain.Driver, error)) {
	id, err := parseDriverID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	driver, err := apply(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driver)
}
