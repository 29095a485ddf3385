package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

func TestStore_UpdateAppliesOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	boom := errors.New("boom")
	err := s.Update(ctx, func(ds repository.DriverStore) error {
		if err := ds.Insert(ctx, &domain.Driver{Name: "A", Phone: "5550000001", Status: domain.DriverStatusInactive}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(s.drivers) != 0 || s.nextID != 1 {
		t.Errorf("failed update leaked state: %d drivers, nextID %d", len(s.drivers), s.nextID)
	}

	var id int64
	err = s.Update(ctx, func(ds repository.DriverStore) error {
		d := &domain.Driver{Name: "A", Phone: "5550000001", Status: domain.DriverStatusInactive}
		if err := ds.Insert(ctx, d); err != nil {
			return err
		}
		id = d.ID
		// Staged writes are visible inside the same unit.
		return ds.IncrementDeliveries(ctx, d.ID)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if id != 1 || s.drivers[id].DeliveriesCount != 1 {
		t.Errorf("unexpected stored driver %+v", s.drivers[id])
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.View(ctx, func(ds repository.DriverStore) error {
		return ds.Insert(ctx, &domain.Driver{Name: "A"})
	})
	if !errors.Is(err, errReadOnly) {
		t.Errorf("expected errReadOnly, got %v", err)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.Update(ctx, func(ds repository.DriverStore) error {
		d := &domain.Driver{Name: "A", Status: domain.DriverStatusInactive}
		if err := ds.Insert(ctx, d); err != nil {
			return err
		}
		return ds.UpdateStatus(ctx, d.ID, domain.DriverStatusActive, 1, &now)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	var got *domain.Driver
	_ = s.View(ctx, func(ds repository.DriverStore) error {
		var err error
		got, err = ds.Get(ctx, 1)
		return err
	})
	got.Position = 99
	*got.ActiveTime = now.Add(time.Hour)

	stored := s.drivers[1]
	if stored.Position != 1 || !stored.ActiveTime.Equal(now) {
		t.Errorf("caller mutation reached the store: %+v", stored)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()

	called := false
	err := s.Update(ctx, func(repository.DriverStore) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("expected context.Canceled without running fn, got %v (called=%t)", err, called)
	}
}

func TestStore_ListByStatusSortedByID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_ = s.Update(ctx, func(ds repository.DriverStore) error {
		for i := 0; i < 5; i++ {
			if err := ds.Insert(ctx, &domain.Driver{Name: "D", Status: domain.DriverStatusActive}); err != nil {
				return err
			}
		}
		return nil
	})

	_ = s.View(ctx, func(ds repository.DriverStore) error {
		list, err := ds.ListByStatus(ctx, domain.DriverStatusActive)
		if err != nil {
			return err
		}
		for i, d := range list {
			if d.ID != int64(i+1) {
				t.Errorf("index %d: expected id %d, got %d", i, i+1, d.ID)
			}
		}
		return nil
	})
}
