package service

import (
	"errors"
	"fmt"

	"driverqueue/internal/repository"
)

var (
	// ErrInvalidDriverID is returned when a driver ID is not positive.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidStatus is returned when a requested status is unknown.
	ErrInvalidStatus = fmt.Errorf("%w: status must be one of inactive, active, busy", repository.ErrValidation)

	// ErrEmptyMessage is returned when a notification message is blank.
	ErrEmptyMessage = fmt.Errorf("%w: message is required", repository.ErrValidation)

	// ErrDriverNotFound is returned when a driver ID is unknown.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrDriverNotBusy is returned when returning a driver that is not out on a delivery.
	ErrDriverNotBusy = errors.New("driver is not currently busy")

	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrQueueChanged is returned when the head of the queue left it while being notified.
	ErrQueueChanged = errors.New("queue changed while calling driver")

	// ErrNoActiveDriver is returned when calling next on an empty queue.
	ErrNoActiveDriver = errors.New("no active drivers available")

	// ErrNotificationFailed is matched by every NotificationError.
	ErrNotificationFailed = errors.New("notification failed")
)

// NotificationError describes a hard failure of the notification channel.
type NotificationError struct {
	Phone  string
	Reason string
	Err    error
}

func (e *NotificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("notification to %s failed: %s", e.Phone, e.Reason)
	}
	return fmt.Sprintf("notification to %s failed: %v", e.Phone, e.Err)
}

// Is lets errors.Is(err, ErrNotificationFailed) match.
func (e *NotificationError) Is(target error) bool {
	return target == ErrNotificationFailed
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// driverNotFound converts a repository miss into ErrDriverNotFound.
func driverNotFound(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrDriverNotFound, id)
	}
	return err
}
