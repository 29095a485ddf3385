package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

const driverColumns = `id, name, phone, status, position, active_time, deliveries_count`

// driverStore is a SQL implementation of repository.DriverStore.
type driverStore struct {
	q       Querier
	dialect Dialect
}

// newDriverStoreWithTx creates a driver store using a transaction.
func newDriverStoreWithTx(tx *sql.Tx, dialect Dialect) *driverStore {
	return &driverStore{q: tx, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	var activeTime any
	if err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.Status,
		&driver.Position,
		&activeTime,
		&driver.DeliveriesCount,
	); err != nil {
		return nil, err
	}
	driver.ActiveTime = parseTimePtr(activeTime)
	return &driver, nil
}

// Get retrieves a driver by ID.
func (s *driverStore) Get(ctx context.Context, id int64) (*domain.Driver, error) {
	query := s.dialect.Rebind(`SELECT ` + driverColumns + ` FROM drivers WHERE id = ?`)

	driver, err := scanDriver(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return driver, nil
}

// List retrieves all drivers.
func (s *driverStore) List(ctx context.Context) ([]*domain.Driver, error) {
	return s.query(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id`)
}

// ListByStatus retrieves all drivers with the given status.
func (s *driverStore) ListByStatus(ctx context.Context, status domain.DriverStatus) ([]*domain.Driver, error) {
	return s.query(ctx, `SELECT `+driverColumns+` FROM drivers WHERE status = ? ORDER BY id`, status)
}

func (s *driverStore) query(ctx context.Context, query string, args ...any) ([]*domain.Driver, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// Insert adds a new driver and sets its ID.
func (s *driverStore) Insert(ctx context.Context, driver *domain.Driver) error {
	query := s.dialect.Rebind(`INSERT INTO drivers (name, phone, status, position, active_time, deliveries_count)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	return s.q.QueryRowContext(ctx, query,
		driver.Name,
		driver.Phone,
		driver.Status,
		driver.Position,
		timeArg(driver.ActiveTime),
		driver.DeliveriesCount,
	).Scan(&driver.ID)
}

// UpdateStatus updates status, position and active time of a driver.
func (s *driverStore) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus, position int, activeTime *time.Time) error {
	query := `UPDATE drivers SET status = ?, position = ?, active_time = ? WHERE id = ?`
	return s.exec(ctx, query, status, position, timeArg(activeTime), id)
}

// UpdatePosition updates the queue position of a driver.
func (s *driverStore) UpdatePosition(ctx context.Context, id int64, position int) error {
	return s.exec(ctx, `UPDATE drivers SET position = ? WHERE id = ?`, position, id)
}

// IncrementDeliveries increments the delivery counter of a driver.
func (s *driverStore) IncrementDeliveries(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE drivers SET deliveries_count = deliveries_count + 1 WHERE id = ?`, id)
}

func (s *driverStore) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.q.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
