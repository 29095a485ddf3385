package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"driverqueue/internal/domain"
	"driverqueue/internal/service"
)

// QueueHandler handles HTTP requests for the driver queue.
type QueueHandler struct {
	queueService *service.QueueService
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

// CallNextResponse is the HTTP response for calling the next driver.
type CallNextResponse struct {
	Success      bool           `json:"success"`
	Driver       *domain.Driver `json:"driver"`
	WhatsAppSent bool           `json:"whatsappSent"`
	Simulated    bool           `json:"simulated"`
	MessageID    string         `json:"messageId,omitempty"`
}

// GetQueue handles GET /api/queue
func (h *QueueHandler) GetQueue(c *gin.Context) {
	queue, err := h.queueService.GetQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if queue == nil {
		queue = []*domain.Driver{}
	}
	respondJSON(c, http.StatusOK, queue)
}

// CallNext handles POST /api/queue/call-next
func (h *QueueHandler) CallNext(c *gin.Context) {
	result, err := h.queueService.CallNextDriver(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if txn := nrgin.Transaction(c); txn != nil {
		txn.AddAttribute("driver.id", result.Driver.ID)
		txn.AddAttribute("notification.simulated", result.Simulated)
	}

	respondJSON(c, http.StatusOK, CallNextResponse{
		Success:      true,
		Driver:       result.Driver,
		WhatsAppSent: result.Notified && !result.Simulated,
		Simulated:    result.Simulated,
		MessageID:    result.MessageID,
	})
}

// GetStats handles GET /api/stats
func (h *QueueHandler) GetStats(c *gin.Context) {
	stats, err := h.queueService.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, stats)
}
