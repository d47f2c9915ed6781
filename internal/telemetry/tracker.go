package telemetry

import (
	"sync"
	"time"
)

// Tracker holds the latest reported position for the tracked scooter, the
// server-side counterpart of the Poller. State lives only in process memory.
type Tracker struct {
	mu     sync.RWMutex
	latest Report
	now    func() time.Time
}

// NewTracker seeds the tracker with a starting position so the location
// endpoint always has something to serve.
func NewTracker(seed Report) *Tracker {
	return &Tracker{
		latest: seed,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Update applies a device report. Invalid positions are refused so one bad
// sample cannot poison the tracked state.
func (t *Tracker) Update(r Report) bool {
	if !r.Valid() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	r.LastUpdated = &now
	t.latest = r
	return true
}

// Latest returns the most recently accepted report.
func (t *Tracker) Latest() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}
