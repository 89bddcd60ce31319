package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kmorse/huddle/internal/query"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}

func countingResource(key string, interval time.Duration, calls *atomic.Int32) Resource {
	return Resource{
		Key:      key,
		Interval: interval,
		Options: query.Options{
			Retry:      -1,
			RetryDelay: func(int) time.Duration { return 0 },
		},
		Fetch: func(ctx context.Context) (any, error) {
			return int(calls.Add(1)), nil
		},
	}
}

func TestRestartResumesPeriodicRefresh(t *testing.T) {
	cache := query.NewCache()
	defer cache.Close()

	p := New(cache)
	var calls atomic.Int32
	p.Register(countingResource("standings", 20*time.Millisecond, &calls))

	p.Start()
	waitFor(t, func() bool { return calls.Load() >= 2 })
	p.Stop()

	// Let the polling goroutine drain before restarting.
	settled := calls.Load()
	time.Sleep(60 * time.Millisecond)

	p.Start()
	waitFor(t, func() bool { return calls.Load() >= settled+2 })
	p.Stop()
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	cache := query.NewCache()
	defer cache.Close()

	p := New(cache)
	var calls atomic.Int32
	p.Register(countingResource("games", time.Hour, &calls))

	p.Start()
	if cmd := p.Start(); cmd != nil {
		t.Error("second Start while running must be a no-op")
	}
	waitFor(t, func() bool { return calls.Load() == 1 })
	p.Stop()
}

func TestRefreshKeyReachesItsResource(t *testing.T) {
	cache := query.NewCache()
	defer cache.Close()

	p := New(cache)
	var aCalls, bCalls atomic.Int32
	p.Register(countingResource("a", time.Hour, &aCalls))
	p.Register(countingResource("b", time.Hour, &bCalls))

	p.Start()
	defer p.Stop()
	waitFor(t, func() bool { return aCalls.Load() == 1 && bCalls.Load() == 1 })

	for i := 0; i < 5; i++ {
		want := aCalls.Load() + 1
		p.RefreshKey("a")
		waitFor(t, func() bool { return aCalls.Load() == want })
	}

	if got := bCalls.Load(); got != 1 {
		t.Errorf("refreshing a must not touch b, got %d calls", got)
	}
}

func TestRefreshAllTriggersEveryResource(t *testing.T) {
	cache := query.NewCache()
	defer cache.Close()

	p := New(cache)
	var aCalls, bCalls atomic.Int32
	p.Register(countingResource("a", time.Hour, &aCalls))
	p.Register(countingResource("b", time.Hour, &bCalls))

	p.Start()
	defer p.Stop()
	waitFor(t, func() bool { return aCalls.Load() == 1 && bCalls.Load() == 1 })

	p.RefreshAll()
	waitFor(t, func() bool { return aCalls.Load() == 2 && bCalls.Load() == 2 })
}

func TestRefreshKeyUnknownResourceIsIgnored(t *testing.T) {
	cache := query.NewCache()
	defer cache.Close()

	p := New(cache)
	p.RefreshKey("nope")
}
