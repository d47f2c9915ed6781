package ride

import (
	"sync"
	"time"
)

// Ticker emits one callback per interval until stopped. Stop is idempotent
// and safe to call when nothing is running. A tick already dequeued when Stop
// lands may still fire its callback, so consumers must check relevance
// themselves (the machine does this with a session generation tag).
type Ticker struct {
	mu   sync.Mutex
	stop chan struct{}
}

// Start begins ticking. Any previously running loop is stopped first, so at
// most one loop is live per Ticker.
func (t *Ticker) Start(interval time.Duration, onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	stop := make(chan struct{})
	t.stop = stop
	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				onTick()
			}
		}
	}()
}

// Stop halts the tick loop. No-op when nothing is running.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Ticker) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}
