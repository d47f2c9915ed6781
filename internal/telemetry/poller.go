package telemetry

import (
	"context"
	"sync"
	"time"
)

// Source fetches the current position of the tracked vehicle.
type Source interface {
	Position(ctx context.Context) (Report, error)
}

// Poller fetches the tracked position once immediately and then on a fixed
// interval until stopped. Malformed samples are dropped without disturbing
// the poll cycle. The first valid sample additionally triggers the framing
// callback, exactly once per Start; later samples only update the position.
type Poller struct {
	source   Source
	interval time.Duration

	// apply receives every valid sample; frame fires on the first one.
	apply func(Report)
	frame func(Report)

	mu     sync.Mutex
	active bool
	framed bool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, interval time.Duration, apply, frame func(Report)) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		source:   source,
		interval: interval,
		apply:    apply,
		frame:    frame,
	}
}

// Start begins polling. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.active = true
	p.framed = false
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		p.fetchOnce(ctx)
		tk := time.NewTicker(p.interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				p.fetchOnce(ctx)
			}
		}
	}(p.done)
}

// Stop halts polling and guarantees no in-flight fetch applies a position
// afterwards. Safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) fetchOnce(ctx context.Context) {
	report, err := p.source.Position(ctx)
	if err != nil || !report.Valid() {
		// Transient bad telemetry; keep the last good position and poll on.
		return
	}

	// A fetch can complete after Stop; applying it then would resurrect a
	// torn-down view.
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	first := !p.framed
	p.framed = true
	apply, frame := p.apply, p.frame
	p.mu.Unlock()

	if first && frame != nil {
		frame(report)
	}
	if apply != nil {
		apply(report)
	}
}
