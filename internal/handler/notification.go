package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driverqueue/internal/service"
)

// NotificationHandler relays ad-hoc WhatsApp messages.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// SendMessageRequest is the HTTP request body for sending a message.
type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendMessageResponse is the HTTP response for a sent message.
type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated"`
	MessageID string `json:"messageId,omitempty"`
}

// Send handles POST /api/whatsapp/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.notificationService.SendMessage(c.Request.Context(), service.SendMessageRequest{
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, SendMessageResponse{
		Success:   true,
		Simulated: result.Simulated,
		MessageID: result.MessageID,
	})
}
