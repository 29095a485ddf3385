package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"driverqueue/internal/domain"
)

// DriverRepository owns driver records and every queue-ordering rule.
// It works unchanged over any Store.
type DriverRepository struct {
	store Store
	tx    DriverStore
	now   func() time.Time
}

// NewDriverRepository creates a new DriverRepository over store.
func NewDriverRepository(store Store) *DriverRepository {
	return &DriverRepository{store: store, now: time.Now}
}

// WithClock replaces the time source used for active timestamps.
func (r *DriverRepository) WithClock(now func() time.Time) *DriverRepository {
	r.now = now
	return r
}

// WithinTx runs fn with a repository whose operations all belong to one
// atomic write unit. Nested calls reuse the enclosing unit.
func (r *DriverRepository) WithinTx(ctx context.Context, fn func(txRepo *DriverRepository) error) error {
	return r.update(ctx, func(s DriverStore) error {
		return fn(&DriverRepository{store: r.store, tx: s, now: r.now})
	})
}

func (r *DriverRepository) update(ctx context.Context, fn func(DriverStore) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.Update(ctx, fn)
}

func (r *DriverRepository) view(ctx context.Context, fn func(DriverStore) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.View(ctx, fn)
}

// GetDriver retrieves a driver by ID. Returns ErrNotFound if absent.
func (r *DriverRepository) GetDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	var driver *domain.Driver
	err := r.view(ctx, func(s DriverStore) error {
		var err error
		driver, err = s.Get(ctx, id)
		return err
	})
	return driver, err
}

// GetAllDrivers retrieves every driver.
func (r *DriverRepository) GetAllDrivers(ctx context.Context) ([]*domain.Driver, error) {
	var drivers []*domain.Driver
	err := r.view(ctx, func(s DriverStore) error {
		var err error
		drivers, err = s.List(ctx)
		return err
	})
	return drivers, err
}

// GetDriversByStatus retrieves every driver with the given status.
func (r *DriverRepository) GetDriversByStatus(ctx context.Context, status domain.DriverStatus) ([]*domain.Driver, error) {
	var drivers []*domain.Driver
	err := r.view(ctx, func(s DriverStore) error {
		var err error
		drivers, err = s.ListByStatus(ctx, status)
		return err
	})
	return drivers, err
}

// CreateDriver registers a new inactive driver outside the queue.
func (r *DriverRepository) CreateDriver(ctx context.Context, name, phone string) (*domain.Driver, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if !domain.ValidName(name) {
		return nil, ErrInvalidName
	}
	if !domain.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	driver := &domain.Driver{
		Name:   name,
		Phone:  phone,
		Status: domain.DriverStatusInactive,
	}
	if err := r.update(ctx, func(s DriverStore) error {
		return s.Insert(ctx, driver)
	}); err != nil {
		return nil, err
	}
	return driver, nil
}

// UpdateDriverStatus moves a driver to status and keeps the active queue dense.
//
// Entering active appends the driver at the tail and stamps the active time.
// Any non-active status compacts the remaining queue. Re-activating an
// active driver changes nothing.
func (r *DriverRepository) UpdateDriverStatus(ctx context.Context, id int64, status domain.DriverStatus) (*domain.Driver, error) {
	var updated *domain.Driver
	err := r.update(ctx, func(s DriverStore) error {
		driver, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		if status == domain.DriverStatusActive {
			if driver.InQueue() {
				updated = driver
				return nil
			}
			active, err := s.ListByStatus(ctx, domain.DriverStatusActive)
			if err != nil {
				return err
			}
			now := r.now()
			if err := s.UpdateStatus(ctx, id, status, maxPosition(active)+1, &now); err != nil {
				return err
			}
		} else {
			// Position is stale outside the queue; zero it so it can never
			// collide with an active position.
			if err := s.UpdateStatus(ctx, id, status, 0, driver.ActiveTime); err != nil {
				return err
			}
			if err := reorder(ctx, s); err != nil {
				return err
			}
		}

		updated, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateDriverPosition overwrites a driver's position. It does not restore
// queue density; callers are responsible for that.
func (r *DriverRepository) UpdateDriverPosition(ctx context.Context, id int64, position int) (*domain.Driver, error) {
	var updated *domain.Driver
	err := r.update(ctx, func(s DriverStore) error {
		if err := s.UpdatePosition(ctx, id, position); err != nil {
			return err
		}
		var err error
		updated, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// IncrementDeliveryCount adds one delivery to a driver.
func (r *DriverRepository) IncrementDeliveryCount(ctx context.Context, id int64) (*domain.Driver, error) {
	var updated *domain.Driver
	err := r.update(ctx, func(s DriverStore) error {
		if err := s.IncrementDeliveries(ctx, id); err != nil {
			return err
		}
		var err error
		updated, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetActiveQueue returns the active drivers ordered by position; the first
// element is next up.
func (r *DriverRepository) GetActiveQueue(ctx context.Context) ([]*domain.Driver, error) {
	var queue []*domain.Driver
	err := r.view(ctx, func(s DriverStore) error {
		active, err := s.ListByStatus(ctx, domain.DriverStatusActive)
		if err != nil {
			return err
		}
		sortByPosition(active)
		queue = active
		return nil
	})
	return queue, err
}

// ReorderQueue relabels the active drivers 1..N keeping their relative order.
func (r *DriverRepository) ReorderQueue(ctx context.Context) error {
	return r.update(ctx, func(s DriverStore) error {
		return reorder(ctx, s)
	})
}

// GetQueueStats aggregates counts over every driver.
func (r *DriverRepository) GetQueueStats(ctx context.Context) (*domain.QueueStats, error) {
	stats := &domain.QueueStats{}
	err := r.view(ctx, func(s DriverStore) error {
		drivers, err := s.List(ctx)
		if err != nil {
			return err
		}
		stats.TotalDrivers = len(drivers)
		for _, d := range drivers {
			switch d.Status {
			case domain.DriverStatusActive:
				stats.ActiveDrivers++
			case domain.DriverStatusBusy:
				stats.BusyDrivers++
			}
			stats.DeliveriesToday += d.DeliveriesCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func reorder(ctx context.Context, s DriverStore) error {
	active, err := s.ListByStatus(ctx, domain.DriverStatusActive)
	if err != nil {
		return err
	}
	sortByPosition(active)
	for i, d := range active {
		if d.Position == i+1 {
			continue
		}
		if err := s.UpdatePosition(ctx, d.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}

// sortByPosition orders drivers by position. Ties fall back to ID so the
// order is deterministic whatever order the store listed them in.
func sortByPosition(drivers []*domain.Driver) {
	sort.SliceStable(drivers, func(i, j int) bool {
		if drivers[i].Position != drivers[j].Position {
			return drivers[i].Position < drivers[j].Position
		}
		return drivers[i].ID < drivers[j].ID
	})
}

func maxPosition(drivers []*domain.Driver) int {
	highest := 0
	for _, d := range drivers {
		if d.Position > highest {
			highest = d.Position
		}
	}
	return highest
}
