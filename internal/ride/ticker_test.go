package ride

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerStopIsIdempotent(t *testing.T) {
	var tk Ticker
	tk.Stop()

	var count atomic.Int64
	tk.Start(5*time.Millisecond, func() { count.Add(1) })
	time.Sleep(30 * time.Millisecond)
	tk.Stop()
	tk.Stop()

	if count.Load() == 0 {
		t.Fatalf("expected at least one tick before stop")
	}
}

func TestTickerNoTicksAfterStop(t *testing.T) {
	var tk Ticker
	var count atomic.Int64
	tk.Start(5*time.Millisecond, func() { count.Add(1) })
	time.Sleep(30 * time.Millisecond)
	tk.Stop()

	// Allow any already-dequeued tick to drain, then verify the count no
	// longer moves.
	time.Sleep(10 * time.Millisecond)
	settled := count.Load()
	time.Sleep(40 * time.Millisecond)
	if got := count.Load(); got != settled {
		t.Fatalf("ticks after stop: count went %d -> %d", settled, got)
	}
}

func TestTickerRestartReplacesLoop(t *testing.T) {
	var tk Ticker
	var first, second atomic.Int64
	tk.Start(5*time.Millisecond, func() { first.Add(1) })
	tk.Start(5*time.Millisecond, func() { second.Add(1) })

	time.Sleep(15 * time.Millisecond)
	stale := first.Load()
	time.Sleep(30 * time.Millisecond)
	tk.Stop()

	if got := first.Load(); got != stale {
		t.Fatalf("replaced loop kept ticking: %d -> %d", stale, got)
	}
	if second.Load() == 0 {
		t.Fatalf("replacement loop never ticked")
	}
}
