package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
	"driverqueue/internal/repository/memory"
	"driverqueue/internal/service"
)

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// SentMessage records one Notify call.
type SentMessage struct {
	Phone   string
	Message string
}

// MockNotifier is a mock implementation of service.Notifier.
type MockNotifier struct {
	mu   sync.RWMutex
	sent []SentMessage

	// Counters for verification
	NotifyCallCount int32

	// Behaviour
	Simulated bool
	Delay     time.Duration
	// Result, when set, is returned instead of a successful delivery.
	Result *service.NotifyResult
	// OnNotify runs before the result is returned.
	OnNotify func(phone string)

	// Error injection
	NotifyError error
}

// NewMockNotifier creates a notifier that reports every message as delivered.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, phoneDigits, message string) (*service.NotifyResult, error) {
	n := atomic.AddInt32(&m.NotifyCallCount, 1)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{Phone: phoneDigits, Message: message})
	m.mu.Unlock()

	if m.OnNotify != nil {
		m.OnNotify(phoneDigits)
	}
	if m.NotifyError != nil {
		return &service.NotifyResult{Error: m.NotifyError.Error()}, m.NotifyError
	}
	if m.Result != nil {
		r := *m.Result
		return &r, nil
	}
	if m.Simulated {
		return &service.NotifyResult{Delivered: true, Simulated: true}, nil
	}
	return &service.NotifyResult{
		Delivered: true,
		MessageID: fmt.Sprintf("msg-%d", n),
	}, nil
}

// Sent returns a copy of every recorded message.
func (m *MockNotifier) Sent() []SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Calls returns how many times Notify was called.
func (m *MockNotifier) Calls() int {
	return int(atomic.LoadInt32(&m.NotifyCallCount))
}

// ──────────────────────────────────────────────
// FAULTY STORE
// ──────────────────────────────────────────────

var errInjected = errors.New("injected store failure")

// FaultyStore wraps a Store and fails IncrementDeliveries on demand, to
// check that multi-step writes roll back together.
type FaultyStore struct {
	repository.Store

	FailIncrement atomic.Bool
}

// NewFaultyStore wraps a fresh in-memory store.
func NewFaultyStore() *FaultyStore {
	return &FaultyStore{Store: memory.NewStore()}
}

func (f *FaultyStore) Update(ctx context.Context, fn func(repository.DriverStore) error) error {
	return f.Store.Update(ctx, func(s repository.DriverStore) error {
		return fn(&faultyDriverStore{DriverStore: s, parent: f})
	})
}

type faultyDriverStore struct {
	repository.DriverStore
	parent *FaultyStore
}

func (s *faultyDriverStore) IncrementDeliveries(ctx context.Context, id int64) error {
	if s.parent.FailIncrement.Load() {
		return errInjected
	}
	return s.DriverStore.IncrementDeliveries(ctx, id)
}

// ──────────────────────────────────────────────
// FIXTURES
// ──────────────────────────────────────────────

// fixedClock returns a clock that advances one second per call, so active
// times are strictly increasing and deterministic.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// testEnv bundles the services under test over one store.
type testEnv struct {
	repo          *repository.DriverRepository
	drivers       *service.DriverService
	queue         *service.QueueService
	notifications *service.NotificationService
	notifier      *MockNotifier
}

func newTestEnv(store repository.Store) *testEnv {
	if store == nil {
		store = memory.NewStore()
	}
	repo := repository.NewDriverRepository(store).WithClock(fixedClock())
	notifier := NewMockNotifier()
	notifications := service.NewNotificationService(notifier, time.Second)
	return &testEnv{
		repo:          repo,
		drivers:       service.NewDriverService(repo),
		queue:         service.NewQueueService(repo, notifications, ""),
		notifications: notifications,
		notifier:      notifier,
	}
}

// register creates a driver and fails the test on error.
func (e *testEnv) register(t testingT, name, phone string) *domain.Driver {
	t.Helper()
	d, err := e.drivers.Register(context.Background(), service.RegisterDriverRequest{Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return d
}

// activate activates a driver and fails the test on error.
func (e *testEnv) activate(t testingT, id int64) *domain.Driver {
	t.Helper()
	d, err := e.queue.ActivateDriver(context.Background(), id)
	if err != nil {
		t.Fatalf("activate %d: %v", id, err)
	}
	return d
}

// queueIDs returns the IDs in queue order and checks positions are 1..N.
func (e *testEnv) queueIDs(t testingT) []int64 {
	t.Helper()
	queue, err := e.queue.GetQueue(context.Background())
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}
	ids := make([]int64, len(queue))
	for i, d := range queue {
		if d.Position != i+1 {
			t.Errorf("driver %d at index %d has position %d, want %d", d.ID, i, d.Position, i+1)
		}
		if d.Status != domain.DriverStatusActive {
			t.Errorf("driver %d in queue has status %s", d.ID, d.Status)
		}
		ids[i] = d.ID
	}
	return ids
}

type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
