package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/query"
)

// SyncState represents the current state of a resource refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the refresh state for a single resource key.
type SyncStatus struct {
	Key      string
	State    SyncState
	LastSync time.Time
	Error    error
}

// ResultMsg is a tea.Msg sent when a resource refresh completes.
type ResultMsg struct {
	Key      string
	Snapshot query.Snapshot

	// AuthExpired is set when the refresh failed because the session
	// token was rejected; the UI should return to the login view.
	AuthExpired bool
}

// Resource describes one server-owned value the poller keeps fresh
// through the query cache.
type Resource struct {
	// Key is the cache key for this resource.
	Key string

	// Interval is how often the resource is refreshed.
	Interval time.Duration

	// Options tune the cache entry for this resource.
	Options query.Options

	// Fetch resolves the resource's current value.
	Fetch query.Fetcher
}

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 30 * time.Second

// Poller drives periodic refreshes of registered resources through the
// query cache and surfaces completions as Bubble Tea messages.
type Poller struct {
	cache     *query.Cache
	resources []Resource
	statuses  map[string]*SyncStatus
	triggers  map[string]chan struct{}
	resultCh  chan ResultMsg
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller over the given query cache.
func New(cache *query.Cache) *Poller {
	return &Poller{
		cache:    cache,
		statuses: make(map[string]*SyncStatus),
		triggers: make(map[string]chan struct{}),
		resultCh: make(chan ResultMsg, 16),
	}
}

// Register adds a resource to the polling set. Must be called before
// Start.
func (p *Poller) Register(r Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resources = append(p.resources, r)
	p.statuses[r.Key] = &SyncStatus{
		Key:   r.Key,
		State: SyncIdle,
	}
	// Buffer of one: a refresh already pending absorbs further triggers.
	p.triggers[r.Key] = make(chan struct{}, 1)
}

// Start launches a refresh goroutine per resource and returns a tea.Cmd
// that waits for the first completion message. The poller can be started
// again after Stop; each run gets its own stop channel.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	resources := make([]Resource, len(p.resources))
	copy(resources, p.resources)
	p.mu.Unlock()

	for _, r := range resources {
		go p.pollResource(r, stop, p.trigger(r.Key))
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines for the current run.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate refresh of every registered resource.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	resources := make([]Resource, len(p.resources))
	copy(resources, p.resources)
	p.mu.Unlock()

	for _, r := range resources {
		p.RefreshKey(r.Key)
	}
}

// RefreshKey triggers an immediate refresh of a single resource.
func (p *Poller) RefreshKey(key string) {
	ch := p.trigger(key)
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// trigger returns the trigger channel for key, nil when unregistered.
func (p *Poller) trigger(key string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.triggers[key]
}

// GetStatuses returns the current refresh status of all resources.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollResource runs the refresh loop for a single resource until stop
// closes.
func (p *Poller) pollResource(r Resource, stop <-chan struct{}, trigger <-chan struct{}) {
	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Register the entry and do an initial fetch immediately.
	p.refresh(r, true)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.refresh(r, false)
		case <-trigger:
			p.refresh(r, false)
		}
	}
}

// refresh performs one refresh of a resource and publishes the result.
// The first call registers the fetcher with the cache; later calls join
// any in-flight request for the key.
func (p *Poller) refresh(r Resource, initial bool) {
	p.setStatus(r.Key, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if initial {
		p.cache.Register(r.Key, r.Fetch, r.Options)
	}
	snap, err := p.cache.Refresh(ctx, r.Key)
	if err != nil {
		p.setStatus(r.Key, SyncError, err)
		p.sendResult(ResultMsg{Key: r.Key, Snapshot: snap})
		return
	}

	refreshErr := snap.Err
	if refreshErr == nil {
		refreshErr = snap.RefreshErr
	}

	if refreshErr != nil {
		p.setStatus(r.Key, SyncError, refreshErr)
		p.sendResult(ResultMsg{
			Key:         r.Key,
			Snapshot:    snap,
			AuthExpired: api.IsAuthentication(refreshErr),
		})
		return
	}

	p.setStatus(r.Key, SyncIdle, nil)
	p.sendResult(ResultMsg{Key: r.Key, Snapshot: snap})
}

// setStatus updates the refresh status for a resource key.
func (p *Poller) setStatus(key string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[key]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a ResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next refresh
// completion.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call after processing a ResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
