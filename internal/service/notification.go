package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

// DefaultPickupMessage is sent to the driver at the head of the queue.
const DefaultPickupMessage = "🍕 New delivery order ready! Please come to the restaurant to pick up your delivery. Thank you!"

const defaultNotifyTimeout = 10 * time.Second

// NotifyResult is the outcome reported by a notification channel.
type NotifyResult struct {
	Delivered bool
	// Simulated is set when no live channel is configured and nothing was sent.
	Simulated bool
	MessageID string
	Error     string
}

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Notify(ctx context.Context, phoneDigits, message string) (*NotifyResult, error)
}

// NotificationService sends driver notifications with a bounded timeout.
type NotificationService struct {
	notifier Notifier
	timeout  time.Duration
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifier Notifier, timeout time.Duration) *NotificationService {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &NotificationService{
		notifier: notifier,
		timeout:  timeout,
	}
}

// SendMessageRequest contains the parameters for a direct message.
type SendMessageRequest struct {
	Phone   string
	Message string
}

// SendMessage validates and sends a free-form message.
func (s *NotificationService) SendMessage(ctx context.Context, req SendMessageRequest) (*NotifyResult, error) {
	if !domain.ValidPhone(req.Phone) {
		return nil, repository.ErrInvalidPhone
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	return s.Send(ctx, req.Phone, req.Message)
}

// Send notifies phone. A simulated result counts as success; anything else
// that is not delivered is returned as a *NotificationError.
func (s *NotificationService) Send(ctx context.Context, phone, message string) (*NotifyResult, error) {
	digits := domain.PhoneDigits(phone)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.notifier.Notify(ctx, digits, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[NOTIFICATION] timed out after %s, to=%s", s.timeout, digits)
		} else {
			log.Printf("[NOTIFICATION] failed, to=%s: %v", digits, err)
		}
		reason := ""
		if result != nil {
			reason = result.Error
		}
		return nil, &NotificationError{Phone: digits, Reason: reason, Err: err}
	}

	if result == nil || (!result.Delivered && !result.Simulated) {
		reason := "channel reported no delivery"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		log.Printf("[NOTIFICATION] rejected, to=%s: %s", digits, reason)
		return nil, &NotificationError{Phone: digits, Reason: reason}
	}

	if result.Simulated {
		log.Printf("[NOTIFICATION] simulated, to=%s, message=%q", digits, message)
	} else {
		log.Printf("[NOTIFICATION] delivered, to=%s, id=%s", digits, result.MessageID)
	}
	return result, nil
}
