package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"driverqueue/internal/domain"
	"driverqueue/internal/repository"
	"driverqueue/internal/repository/memory"
)

func newRepo(t *testing.T) *repository.DriverRepository {
	t.Helper()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return repository.NewDriverRepository(memory.NewStore()).WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
}

func mustCreate(t *testing.T, repo *repository.DriverRepository, name, phone string) *domain.Driver {
	t.Helper()
	d, err := repo.CreateDriver(context.Background(), name, phone)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return d
}

func mustStatus(t *testing.T, repo *repository.DriverRepository, id int64, status domain.DriverStatus) *domain.Driver {
	t.Helper()
	d, err := repo.UpdateDriverStatus(context.Background(), id, status)
	if err != nil {
		t.Fatalf("status %d -> %s: %v", id, status, err)
	}
	return d
}

func positions(t *testing.T, repo *repository.DriverRepository) map[int64]int {
	t.Helper()
	queue, err := repo.GetActiveQueue(context.Background())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	out := make(map[int64]int, len(queue))
	for _, d := range queue {
		out[d.ID] = d.Position
	}
	return out
}

func TestUpdateDriverStatus_BusyLeavesQueue(t *testing.T) {
	repo := newRepo(t)
	a := mustCreate(t, repo, "A", "5550000001")
	b := mustCreate(t, repo, "B", "5550000002")
	c := mustCreate(t, repo, "C", "5550000003")
	activeA := mustStatus(t, repo, a.ID, domain.DriverStatusActive)
	mustStatus(t, repo, b.ID, domain.DriverStatusActive)
	mustStatus(t, repo, c.ID, domain.DriverStatusActive)

	busy := mustStatus(t, repo, a.ID, domain.DriverStatusBusy)
	if busy.Position != 0 {
		t.Errorf("busy driver should hold no position, got %d", busy.Position)
	}
	if busy.ActiveTime == nil || !busy.ActiveTime.Equal(*activeA.ActiveTime) {
		t.Errorf("active time should survive leaving the queue, got %v", busy.ActiveTime)
	}

	got := positions(t, repo)
	if got[b.ID] != 1 || got[c.ID] != 2 || len(got) != 2 {
		t.Errorf("unexpected positions %v", got)
	}
}

func TestUpdateDriverStatus_UnknownDriver(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.UpdateDriverStatus(context.Background(), 5, domain.DriverStatusActive); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReorderQueue_RestoresDensity(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	var ids []int64
	for _, phone := range []string{"5550000001", "5550000002", "5550000003"} {
		d := mustCreate(t, repo, "D", phone)
		mustStatus(t, repo, d.ID, domain.DriverStatusActive)
		ids = append(ids, d.ID)
	}

	// Leave gaps and an out-of-order tail.
	if _, err := repo.UpdateDriverPosition(ctx, ids[0], 10); err != nil {
		t.Fatalf("position: %v", err)
	}
	if _, err := repo.UpdateDriverPosition(ctx, ids[2], 4); err != nil {
		t.Fatalf("position: %v", err)
	}
	if err := repo.ReorderQueue(ctx); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := positions(t, repo)
	want := map[int64]int{ids[1]: 1, ids[2]: 2, ids[0]: 3}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("driver %d: expected position %d, got %d", id, pos, got[id])
		}
	}
}

func TestGetActiveQueue_TiesBreakByID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a := mustCreate(t, repo, "A", "5550000001")
	b := mustCreate(t, repo, "B", "5550000002")
	mustStatus(t, repo, b.ID, domain.DriverStatusActive)
	mustStatus(t, repo, a.ID, domain.DriverStatusActive)
	if _, err := repo.UpdateDriverPosition(ctx, b.ID, 2); err != nil {
		t.Fatalf("position: %v", err)
	}

	queue, err := repo.GetActiveQueue(ctx)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if queue[0].ID != a.ID || queue[1].ID != b.ID {
		t.Errorf("expected lower ID first on a tie, got %d then %d", queue[0].ID, queue[1].ID)
	}
}

func TestIncrementDeliveryCount(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	d := mustCreate(t, repo, "A", "5550000001")

	for i := 1; i <= 3; i++ {
		got, err := repo.IncrementDeliveryCount(ctx, d.ID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got.DeliveriesCount != i {
			t.Errorf("expected %d deliveries, got %d", i, got.DeliveriesCount)
		}
	}

	if _, err := repo.IncrementDeliveryCount(ctx, 404); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWithinTx_RollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	d := mustCreate(t, repo, "A", "5550000001")
	mustStatus(t, repo, d.ID, domain.DriverStatusActive)

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(tx *repository.DriverRepository) error {
		if _, err := tx.UpdateDriverStatus(ctx, d.ID, domain.DriverStatusBusy); err != nil {
			return err
		}
		if _, err := tx.IncrementDeliveryCount(ctx, d.ID); err != nil {
			return err
		}
		if _, err := tx.CreateDriver(ctx, "B", "5550000002"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := repo.GetDriver(ctx, d.ID)
	if got.Status != domain.DriverStatusActive || got.Position != 1 || got.DeliveriesCount != 0 {
		t.Errorf("expected no changes after rollback, got %+v", got)
	}
	all, _ := repo.GetAllDrivers(ctx)
	if len(all) != 1 {
		t.Errorf("expected insert to roll back, got %d drivers", len(all))
	}
}

func TestGetQueueStats_EmptyStore(t *testing.T) {
	stats, err := newRepo(t).GetQueueStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if *stats != (domain.QueueStats{}) {
		t.Errorf("expected zero stats, got %+v", *stats)
	}
}
