package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
)

// Store is an in-memory implementation of repository.Store.
type Store struct {
	mu      sync.RWMutex
	drivers map[int64]domain.Driver
	nextID  int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		drivers: make(map[int64]domain.Driver),
		nextID:  1,
	}
}

// Ensure Store satisfies the backend contract.
var _ repository.Store = (*Store)(nil)

// Update runs fn under the write lock. Writes are staged and only applied
// when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(repository.DriverStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{store: s, staged: make(map[int64]domain.Driver), nextID: s.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	for id, d := range tx.staged {
		s.drivers[id] = d
	}
	s.nextID = tx.nextID
	return nil
}

// View runs fn under the read lock.
func (s *Store) View(ctx context.Context, fn func(repository.DriverStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&txn{store: s, readOnly: true})
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// txn is a DriverStore bound to one Update or View call.
type txn struct {
	store    *Store
	staged   map[int64]domain.Driver
	nextID   int64
	readOnly bool
}

func (t *txn) lookup(id int64) (domain.Driver, bool) {
	if d, ok := t.staged[id]; ok {
		return d, true
	}
	d, ok := t.store.drivers[id]
	return d, ok
}

func (t *txn) all() []domain.Driver {
	result := make([]domain.Driver, 0, len(t.store.drivers)+len(t.staged))
	for id, d := range t.store.drivers {
		if staged, ok := t.staged[id]; ok {
			d = staged
		}
		result = append(result, d)
	}
	for id, d := range t.staged {
		if _, ok := t.store.drivers[id]; !ok {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (t *txn) Get(ctx context.Context, id int64) (*domain.Driver, error) {
	d, ok := t.lookup(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(d), nil
}

func (t *txn) List(ctx context.Context) ([]*domain.Driver, error) {
	all := t.all()
	result := make([]*domain.Driver, 0, len(all))
	for _, d := range all {
		result = append(result, clone(d))
	}
	return result, nil
}

func (t *txn) ListByStatus(ctx context.Context, status domain.DriverStatus) ([]*domain.Driver, error) {
	var result []*domain.Driver
	for _, d := range t.all() {
		if d.Status == status {
			result = append(result, clone(d))
		}
	}
	return result, nil
}

func (t *txn) Insert(ctx context.Context, driver *domain.Driver) error {
	if t.readOnly {
		return errReadOnly
	}
	driver.ID = t.nextID
	t.nextID++
	t.staged[driver.ID] = *clone(*driver)
	return nil
}

func (t *txn) UpdateStatus(ctx context.Context, id int64, status domain.DriverStatus, position int, activeTime *time.Time) error {
	return t.modify(id, func(d *domain.Driver) {
		d.Status = status
		d.Position = position
		d.ActiveTime = copyTime(activeTime)
	})
}

func (t *txn) UpdatePosition(ctx context.Context, id int64, position int) error {
	return t.modify(id, func(d *domain.Driver) {
		d.Position = position
	})
}

func (t *txn) IncrementDeliveries(ctx context.Context, id int64) error {
	return t.modify(id, func(d *domain.Driver) {
		d.DeliveriesCount++
	})
}

func (t *txn) modify(id int64, fn func(d *domain.Driver)) error {
	if t.readOnly {
		return errReadOnly
	}
	d, ok := t.lookup(id)
	if !ok {
		return repository.ErrNotFound
	}
	fn(&d)
	t.staged[id] = d
	return nil
}

// clone returns a copy that shares no memory with the stored record.
func clone(d domain.Driver) *domain.Driver {
	d.ActiveTime = copyTime(d.ActiveTime)
	return &d
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
