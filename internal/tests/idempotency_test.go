package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"driverqueue/internal/app"
	"driverqueue/internal/domain"
	"driverqueue/internal/handler"
)

func callNextWithKey(router http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/queue/call-next", nil)
	req.Header.Set("Idempotency-Key", key)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCallNext_RetryWhileNotifyingDispatchesOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(nil)
	env.notifier.Delay = 200 * time.Millisecond
	router := app.NewRouter(app.RouterDeps{
		DriverHandler:       handler.NewDriverHandler(env.drivers, env.queue),
		QueueHandler:        handler.NewQueueHandler(env.queue),
		NotificationHandler: handler.NewNotificationHandler(env.notifications),
		RedisClient:         client,
	})

	a := env.register(t, "Alice", "5550000001")
	b := env.register(t, "Bob", "5550000002")
	env.activate(t, a.ID)
	env.activate(t, b.ID)

	var (
		wg    sync.WaitGroup
		first *httptest.ResponseRecorder
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = callNextWithKey(router, "order-77")
	}()

	time.Sleep(50 * time.Millisecond)
	retry := callNextWithKey(router, "order-77")
	wg.Wait()

	if first.Code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d: %s", first.Code, first.Body)
	}
	if retry.Code != http.StatusConflict {
		t.Errorf("in-flight retry: expected 409, got %d: %s", retry.Code, retry.Body)
	}
	if env.notifier.Calls() != 1 {
		t.Errorf("expected one notification, got %d", env.notifier.Calls())
	}

	stats, _ := env.queue.GetStats(context.Background())
	if stats.BusyDrivers != 1 || stats.DeliveriesToday != 1 {
		t.Errorf("expected exactly one dispatch, got %+v", *stats)
	}
	if ids := env.queueIDs(t); !equalIDs(ids, []int64{b.ID}) {
		t.Errorf("expected Bob still waiting, got %v", ids)
	}

	late := callNextWithKey(router, "order-77")
	if late.Code != http.StatusOK || late.Body.String() != first.Body.String() {
		t.Errorf("late retry should replay the first response, got %d: %s", late.Code, late.Body)
	}
	replayed := decode[handler.CallNextResponse](t, late)
	if replayed.Driver == nil || replayed.Driver.ID != a.ID || replayed.Driver.Status != domain.DriverStatusActive {
		t.Errorf("unexpected replayed driver %+v", replayed.Driver)
	}
	if env.notifier.Calls() != 1 {
		t.Errorf("replay must not notify again, got %d notifications", env.notifier.Calls())
	}
}
