package service

import (
	"context"
	"log"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

// DriverService handles driver registration and lookups.
type DriverService struct {
	driverRepo *repository.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo *repository.DriverRepository) *DriverService {
	return &DriverService{driverRepo: driverRepo}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name  string
	Phone string
}

// Register creates a new inactive driver.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	driver, err := s.driverRepo.CreateDriver(ctx, req.Name, req.Phone)
	if err != nil {
		return nil, err
	}
	log.Printf("[DRIVER] registered id=%d name=%q", driver.ID, driver.Name)
	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	if id <= 0 {
		return nil, ErrInvalidDriverID
	}
	driver, err := s.driverRepo.GetDriver(ctx, id)
	if err != nil {
		return nil, driverNotFound(err, id)
	}
	return driver, nil
}

// ListDrivers returns every registered driver.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAllDrivers(ctx)
}

// ListDriversByStatus returns the drivers in the given status.
func (s *DriverService) ListDriversByStatus(ctx context.Context, status domain.DriverStatus) ([]*domain.Driver, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.driverRepo.GetDriversByStatus(ctx, status)
}
