package repository

import (
	"context"
	"time"

	"driverqueue/internal/domain"
)

// DriverStore defines the primitive persistence operations for drivers.
// Implementations do not enforce queue ordering; DriverRepository does.
type DriverStore interface {
	// Get retrieves a driver by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*domain.Driver, error)

	// List retrieves all drivers in ID order.
	List(ctx context.Context) ([]*domain.Driver, error)

	// ListByStatus retrieves all drivers with the given status.
	ListByStatus(ctx context.Context, status domain.DriverStatus) ([]*domain.Driver, error)

	// Insert persists a new driver and assigns its ID.
	Insert(ctx context.Context, driver *domain.Driver) error

	// UpdateStatus writes status, position and active time in one step.
	UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus, position int, activeTime *time.Time) error

	// UpdatePosition overwrites the queue position of a driver.
	UpdatePosition(ctx context.Context, id int64, position int) error

	// IncrementDeliveries adds one to the delivery counter of a driver.
	IncrementDeliveries(ctx context.Context, id int64) error
}

// Store is a driver storage backend.
type Store interface {
	// Update runs fn as a single atomic write unit. Units never interleave
	// with each other; if fn returns an error nothing it wrote is kept.
	Update(ctx context.Context, fn func(DriverStore) error) error

	// View runs fn against a consistent snapshot of the drivers.
	View(ctx context.Context, fn func(DriverStore) error) error

	// Close releases backend resources.
	Close() error
}
