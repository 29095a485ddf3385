package tests

import (
	"context"
	"errors"
	"testing"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
	"driverqueue/internal/service"
)

// ──────────────────────────────────────────────
// DRIVER REGISTRATION
// ──────────────────────────────────────────────

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		driver  string
		phone   string
		wantErr error
	}{
		{"valid", "Alice", "555-000-0001", nil},
		{"formatted phone", "Bob", "+1 (555) 000-0002", nil},
		{"empty name", "", "5550000003", repository.ErrInvalidName},
		{"blank name", "   ", "5550000004", repository.ErrInvalidName},
		{"short phone", "Carol", "555-0005", repository.ErrInvalidPhone},
		{"letters only", "Dave", "not-a-phone", repository.ErrInvalidPhone},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(nil)

			d, err := env.drivers.Register(context.Background(), service.RegisterDriverRequest{Name: tc.driver, Phone: tc.phone})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				if !errors.Is(err, repository.ErrValidation) {
					t.Errorf("expected a validation error, got %v", err)
				}
				all, _ := env.drivers.ListDrivers(context.Background())
				if len(all) != 0 {
					t.Errorf("failed registration should not persist, got %d drivers", len(all))
				}
				return
			}
			if d.ID <= 0 {
				t.Errorf("expected a positive ID, got %d", d.ID)
			}
			if d.Status != domain.DriverStatusInactive || d.Position != 0 || d.ActiveTime != nil || d.DeliveriesCount != 0 {
				t.Errorf("unexpected defaults: %+v", d)
			}
		})
	}
}

func TestRegister_TrimsAndAssignsIncreasingIDs(t *testing.T) {
	t.Parallel()
	env := newTestEnv(nil)

	a := env.register(t, "  Alice  ", "5550000001")
	b := env.register(t, "Bob", "5550000002")
	if a.Name != "Alice" {
		t.Errorf("expected trimmed name, got %q", a.Name)
	}
	if b.ID <= a.ID {
		t.Errorf("expected increasing IDs, got %d then %d", a.ID, b.ID)
	}
}

func TestListDrivers_ByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(nil)

	a := env.register(t, "Alice", "5550000001")
	b := env.register(t, "Bob", "5550000002")
	env.register(t, "Carol", "5550000003")
	env.activate(t, b.ID)
	env.activate(t, a.ID)

	all, err := env.drivers.ListDrivers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 drivers, got %d", len(all))
	}

	active, err := env.drivers.ListDriversByStatus(ctx, domain.DriverStatusActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active drivers, got %d", len(active))
	}

	if _, err := env.drivers.ListDriversByStatus(ctx, "sleeping"); !errors.Is(err, service.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestGetDriver_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(nil)

	_, err := env.drivers.GetDriver(context.Background(), 99)
	if !errors.Is(err, service.ErrDriverNotFound) {
		t.Errorf("expected ErrDriverNotFound, got %v", err)
	}
	if errors.Is(err, repository.ErrValidation) {
		t.Errorf("not-found should not classify as validation: %v", err)
	}
}
