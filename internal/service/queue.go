package service

import (
	"context"
	"log"
	"sync"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

// QueueService sequences the queue operations that span more than one
// repository call or involve the notification channel.
type QueueService struct {
	// callMu serializes CallNextDriver so two callers never dispatch the same head.
	callMu        sync.Mutex
	driverRepo    *repository.DriverRepository
	notifications *NotificationService
	pickupMessage string
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	driverRepo *repository.DriverRepository,
	notifications *NotificationService,
	pickupMessage string,
) *QueueService {
	if pickupMessage == "" {
		pickupMessage = DefaultPickupMessage
	}
	return &QueueService{
		driverRepo:    driverRepo,
		notifications: notifications,
		pickupMessage: pickupMessage,
	}
}

// CallNextResult contains the outcome of calling the next driver.
type CallNextResult struct {
	// Driver is the record as it was before it left the queue.
	Driver    *domain.Driver
	Notified  bool
	Simulated bool
	MessageID string
}

// CallNextDriver notifies the driver at the head of the queue and, only if
// the notification succeeded, marks them busy and counts the delivery.
func (s *QueueService) CallNextDriver(ctx context.Context) (*CallNextResult, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	queue, err := s.driverRepo.GetActiveQueue(ctx)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, ErrNoActiveDriver
	}
	next := queue[0]

	notified, err := s.notifications.Send(ctx, next.Phone, s.pickupMessage)
	if err != nil {
		return nil, err
	}

	err = s.driverRepo.WithinTx(ctx, func(tx *repository.DriverRepository) error {
		current, err := tx.GetDriver(ctx, next.ID)
		if err != nil {
			return driverNotFound(err, next.ID)
		}
		// The head may have been deactivated while the message was in flight.
		if !current.InQueue() || current.Position != next.Position {
			return ErrQueueChanged
		}
		if _, err := tx.UpdateDriverStatus(ctx, next.ID, domain.DriverStatusBusy); err != nil {
			return err
		}
		_, err = tx.IncrementDeliveryCount(ctx, next.ID)
		return err
	})
	if err != nil {
		log.Printf("[QUEUE] driver %d notified but not dispatched: %v", next.ID, err)
		return nil, err
	}

	log.Printf("[QUEUE] called driver %d (%s), simulated=%t", next.ID, next.Name, notified.Simulated)
	return &CallNextResult{
		Driver:    next,
		Notified:  notified.Delivered,
		Simulated: notified.Simulated,
		MessageID: notified.MessageID,
	}, nil
}

// ReturnDriver puts a busy driver back at the tail of the queue.
func (s *QueueService) ReturnDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	if id <= 0 {
		return nil, ErrInvalidDriverID
	}

	var updated *domain.Driver
	err := s.driverRepo.WithinTx(ctx, func(tx *repository.DriverRepository) error {
		driver, err := tx.GetDriver(ctx, id)
		if err != nil {
			return driverNotFound(err, id)
		}
		if driver.Status != domain.DriverStatusBusy {
			return ErrDriverNotBusy
		}
		updated, err = tx.UpdateDriverStatus(ctx, id, domain.DriverStatusActive)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[QUEUE] driver %d returned at position %d", updated.ID, updated.Position)
	return updated, nil
}

// ActivateDriver puts a driver at the tail of the queue. Activating an
// active driver leaves their position unchanged.
func (s *QueueService) ActivateDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	if id <= 0 {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.UpdateDriverStatus(ctx, id, domain.DriverStatusActive)
	if err != nil {
		return nil, driverNotFound(err, id)
	}
	return driver, nil
}

// DeactivateDriver takes an active driver out of the queue. A busy driver
// must return before going inactive.
func (s *QueueService) DeactivateDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	if id <= 0 {
		return nil, ErrInvalidDriverID
	}

	var updated *domain.Driver
	err := s.driverRepo.WithinTx(ctx, func(tx *repository.DriverRepository) error {
		driver, err := tx.GetDriver(ctx, id)
		if err != nil {
			return driverNotFound(err, id)
		}
		switch driver.Status {
		case domain.DriverStatusBusy:
			return ErrInvalidTransition
		case domain.DriverStatusInactive:
			updated = driver
			return nil
		}
		updated, err = tx.UpdateDriverStatus(ctx, id, domain.DriverStatusInactive)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDriverStatus applies a status requested by the driver. Only call-next
// may make a driver busy.
func (s *QueueService) SetDriverStatus(ctx context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error) {
	switch status {
	case domain.DriverStatusActive:
		return s.ActivateDriver(ctx, id)
	case domain.DriverStatusInactive:
		return s.DeactivateDriver(ctx, id)
	case domain.DriverStatusBusy:
		return nil, ErrInvalidTransition
	default:
		return nil, ErrInvalidStatus
	}
}

// GetQueue returns the active drivers in call order.
func (s *QueueService) GetQueue(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetActiveQueue(ctx)
}

// GetStats returns aggregate queue statistics.
func (s *QueueService) GetStats(ctx context.Context) (*domain.QueueStats, error) {
	return s.driverRepo.GetQueueStats(ctx)
}
