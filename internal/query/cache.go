// Package query implements the dashboard's data synchronization core:
// a keyed cache of server-derived values with stale-while-revalidate
// refresh, per-key request deduplication, bounded retry with
// exponential backoff, and advisory eviction of unused entries.
package query

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cached query.
type Status int

const (
	// StatusLoading means no resolution has completed yet.
	StatusLoading Status = iota

	// StatusSuccess means Data holds the last successful result.
	StatusSuccess

	// StatusError means resolution failed with no prior data to serve.
	StatusError
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is one observed state of a query. Data is set only when
// Status is StatusSuccess; Err only when Status is StatusError. A
// background refresh that fails while prior data exists keeps the
// success state and records the failure in RefreshErr instead.
type Snapshot struct {
	Status     Status
	Data       any
	Err        error
	RefreshErr error
	FetchedAt  time.Time
}

// Fresh reports whether the snapshot's data is younger than staleTime.
func (s Snapshot) Fresh(now time.Time, staleTime time.Duration) bool {
	return s.Status == StatusSuccess && now.Sub(s.FetchedAt) < staleTime
}

// Data extracts the snapshot's value as T. The second return is false
// when the snapshot holds no success data or the type does not match.
func Data[T any](s Snapshot) (T, bool) {
	v, ok := s.Data.(T)
	return v, ok
}

// Fetcher resolves the current value of a query key.
type Fetcher func(ctx context.Context) (any, error)

// entry is the cached state for one key. All fields are guarded by the
// cache mutex.
type entry struct {
	snap       Snapshot
	opts       Options
	fetcher    Fetcher
	refreshing bool
	subs       map[int]chan Snapshot
	nextSubID  int
	idleSince  time.Time
}

// Cache is a keyed query cache. All state transitions for a key are
// applied under one lock, so every subscriber observes the same
// sequence of snapshots.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	clock   func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

// NewCache creates a cache and starts its eviction janitor.
func NewCache() *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Close stops the eviction janitor.
func (c *Cache) Close() {
	c.stopped.Do(func() { close(c.stop) })
}

// Fetch returns the current state for key synchronously. When the entry
// is absent or stale it also starts an asynchronous resolution using
// fetcher; concurrent callers share that single in-flight request.
func (c *Cache) Fetch(ctx context.Context, key string, fetcher Fetcher, opts Options) Snapshot {
	opts = opts.withDefaults()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			snap:      Snapshot{Status: StatusLoading},
			subs:      make(map[int]chan Snapshot),
			idleSince: c.clock(),
		}
		c.entries[key] = e
	}
	e.opts = opts
	e.fetcher = fetcher

	snap := e.snap
	stale := !snap.Fresh(c.clock(), opts.StaleTime)
	start := stale && !e.refreshing
	if start {
		e.refreshing = true
	}
	c.mu.Unlock()

	if start {
		go c.resolve(ctx, key, fetcher, opts)
	}
	return snap
}

// Register stores the fetcher and options for key without triggering a
// fetch, creating the entry in the loading state when absent.
func (c *Cache) Register(key string, fetcher Fetcher, opts Options) {
	opts = opts.withDefaults()

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			snap:      Snapshot{Status: StatusLoading},
			subs:      make(map[int]chan Snapshot),
			idleSince: c.clock(),
		}
		c.entries[key] = e
	}
	e.opts = opts
	e.fetcher = fetcher
}

// Refresh forces a resolution for key and blocks until it completes,
// returning the resulting snapshot. It joins any in-flight request for
// the same key rather than issuing another.
func (c *Cache) Refresh(ctx context.Context, key string) (Snapshot, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return Snapshot{}, &UnknownKeyError{Key: key}
	}
	fetcher, opts := e.fetcher, e.opts
	e.refreshing = true
	c.mu.Unlock()

	c.resolve(ctx, key, fetcher, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.snap, nil
	}
	return Snapshot{}, &UnknownKeyError{Key: key}
}

// Invalidate marks key stale and, when the key has active subscribers,
// triggers an immediate background refresh.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.snap.FetchedAt = time.Time{}
	start := len(e.subs) > 0 && !e.refreshing && e.fetcher != nil
	if start {
		e.refreshing = true
	}
	fetcher, opts := e.fetcher, e.opts
	c.mu.Unlock()

	if start {
		go c.resolve(ctx, key, fetcher, opts)
	}
}

// Subscribe registers an observer for key. The returned channel yields
// every subsequent snapshot transition in order. The cancel function
// must be called when the observer goes away; an entry with no
// subscribers becomes eligible for eviction after its CacheTime.
func (c *Cache) Subscribe(key string) (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			snap: Snapshot{Status: StatusLoading},
			subs: make(map[int]chan Snapshot),
		}
		c.entries[key] = e
	}

	id := e.nextSubID
	e.nextSubID++
	ch := make(chan Snapshot, 8)
	e.subs[id] = ch
	e.idleSince = time.Time{}

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries[key]
		if !ok {
			return
		}
		if _, ok := e.subs[id]; !ok {
			return
		}
		delete(e.subs, id)
		close(ch)
		if len(e.subs) == 0 {
			e.idleSince = c.clock()
		}
	}
	return ch, cancel
}

// Get returns the current snapshot for key without triggering a fetch.
func (c *Cache) Get(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	return e.snap, true
}

// UnknownKeyError is returned by Refresh for a key never fetched.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return "no query registered for key " + e.Key
}

// resolve performs the fetch (deduplicated through singleflight),
// applies the resulting transition, and notifies subscribers.
func (c *Cache) resolve(ctx context.Context, key string, fetcher Fetcher, opts Options) {
	result, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetchWithRetry(ctx, fetcher, opts)
	})

	now := c.clock()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		// Evicted while in flight; discard the late result.
		c.mu.Unlock()
		return
	}
	e.refreshing = false

	if err == nil {
		e.snap = Snapshot{
			Status:    StatusSuccess,
			Data:      result,
			FetchedAt: now,
		}
	} else if e.snap.Status == StatusSuccess {
		// Keep serving last-known-good data; record the failure
		// without clearing it.
		e.snap.RefreshErr = err
	} else {
		e.snap = Snapshot{
			Status: StatusError,
			Err:    err,
		}
	}

	snap := e.snap
	subs := make([]chan Snapshot, 0, len(e.subs))
	for _, ch := range e.subs {
		subs = append(subs, ch)
	}
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Slow observer: drop its oldest pending snapshot so it
			// always ends on the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	c.mu.Unlock()
}

// fetchWithRetry runs the fetcher with the configured retry policy.
// Terminal errors (per RetryIf) abort immediately.
func (c *Cache) fetchWithRetry(ctx context.Context, fetcher Fetcher, opts Options) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= opts.Retry; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryDelay(attempt - 1)):
			}
		}

		result, err := fetcher(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !opts.RetryIf(err) {
			break
		}
	}
	return nil, lastErr
}

// janitorInterval is how often unused entries are swept.
const janitorInterval = time.Minute

// janitor periodically evicts entries that have had no subscribers for
// longer than their CacheTime.
func (c *Cache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictIdle()
		}
	}
}

// evictIdle removes entries whose idle period exceeds their CacheTime.
func (c *Cache) evictIdle() {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if len(e.subs) > 0 || e.refreshing {
			continue
		}
		if e.idleSince.IsZero() {
			continue
		}
		if now.Sub(e.idleSince) > e.opts.CacheTime {
			delete(c.entries, key)
		}
	}
}
