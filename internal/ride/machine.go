package ride

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Machine owns one rental session at a time and drives it through
// idle -> riding -> ended -> paid against the remote service. All state
// transitions are authoritative only once their own remote confirmation
// arrives; tick and call results carry the session generation they were
// issued for and are dropped when the session has moved on.
type Machine struct {
	svc          Service
	user         string
	tickInterval time.Duration
	notify       func(Snapshot)

	mu         sync.Mutex
	gen        int
	phase      Phase
	bookingID  string
	vehicleID  int
	committed  int
	elapsed    int
	warning    bool
	acked      bool
	settlement *Settlement
	ticker     Ticker
}

func NewMachine(svc Service, user string, tickInterval time.Duration) *Machine {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Machine{
		svc:          svc,
		user:         user,
		tickInterval: tickInterval,
		phase:        PhaseIdle,
	}
}

// SetNotify installs a listener invoked with a state snapshot after every
// change. Must be set before the first Begin call.
func (m *Machine) SetNotify(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// Begin books the vehicle and starts the ride. Unavailable vehicles are
// rejected locally without a remote call. Both remote calls must confirm
// before the session becomes riding; a start failure after a successful book
// leaves the remote reservation in place and the local machine idle.
func (m *Machine) Begin(ctx context.Context, v Vehicle, committedSeconds int) (Snapshot, error) {
	m.mu.Lock()
	if m.phase != PhaseIdle {
		m.mu.Unlock()
		return Snapshot{}, ErrActiveSession
	}
	if v.Status != VehicleAvailable {
		m.mu.Unlock()
		return Snapshot{}, ErrVehicleUnavailable
	}
	issued := m.gen
	m.mu.Unlock()

	if err := m.svc.Book(ctx, v.ID, m.user); err != nil {
		return Snapshot{}, fmt.Errorf("book vehicle %d: %w", v.ID, err)
	}
	bookingID, err := m.svc.StartRide(ctx, v.ID, m.user)
	if err != nil {
		// The reservation may now be orphaned on the remote side; the
		// machine stays idle rather than pretending the ride started.
		return Snapshot{}, fmt.Errorf("vehicle %d booked but ride not started: %w", v.ID, err)
	}

	m.mu.Lock()
	if m.gen != issued || m.phase != PhaseIdle {
		m.mu.Unlock()
		return Snapshot{}, ErrSuperseded
	}
	m.gen++
	gen := m.gen
	m.phase = PhaseRiding
	m.bookingID = bookingID
	m.vehicleID = v.ID
	m.committed = committedSeconds
	m.elapsed = 0
	m.warning = false
	m.acked = false
	m.settlement = nil
	m.ticker.Start(m.tickInterval, func() { m.tick(gen) })
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return snap, nil
}

// tick advances the elapsed clock by one second. Ticks from a superseded
// session generation, or arriving once the phase has left riding, are no-ops.
func (m *Machine) tick(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.phase != PhaseRiding {
		m.mu.Unlock()
		return
	}
	m.elapsed++
	if ShouldWarn(m.elapsed, m.committed, m.acked, m.warning) {
		m.warning = true
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
}

// ContinueRide resolves the overtime prompt by accepting further billing.
// No remote call is involved and the prompt never re-raises afterwards.
func (m *Machine) ContinueRide() (Snapshot, error) {
	m.mu.Lock()
	if m.phase != PhaseRiding {
		m.mu.Unlock()
		return Snapshot{}, ErrNoActiveRide
	}
	m.acked = true
	m.warning = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return snap, nil
}

// End stops the clock immediately, then asks the service to settle the ride.
// On a remote failure the clock stays stopped but the phase remains riding so
// the rider can retry; on success the elapsed time is frozen and the
// settlement recorded.
func (m *Machine) End(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.phase != PhaseRiding {
		m.mu.Unlock()
		return Snapshot{}, ErrNoActiveRide
	}
	m.ticker.Stop()
	m.warning = false
	issued := m.gen
	vehicleID := m.vehicleID
	m.mu.Unlock()

	settlement, err := m.svc.EndRide(ctx, vehicleID, m.user)
	if err != nil {
		return Snapshot{}, fmt.Errorf("end ride: %w", err)
	}

	m.mu.Lock()
	if m.gen != issued || m.phase != PhaseRiding {
		m.mu.Unlock()
		return Snapshot{}, ErrSuperseded
	}
	m.phase = PhaseEnded
	m.settlement = &settlement
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return snap, nil
}

// Pay settles the recorded amount. On success the returned receipt carries
// the paid phase and the final settlement, and the machine resets to idle
// for a fresh booking cycle. On failure the session stays ended, retryable.
func (m *Machine) Pay(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.phase != PhaseEnded {
		m.mu.Unlock()
		return Snapshot{}, ErrNothingToPay
	}
	issued := m.gen
	bookingID := m.bookingID
	m.mu.Unlock()

	if err := m.svc.Pay(ctx, bookingID); err != nil {
		return Snapshot{}, fmt.Errorf("pay booking %s: %w", bookingID, err)
	}

	m.mu.Lock()
	if m.gen != issued || m.phase != PhaseEnded {
		m.mu.Unlock()
		return Snapshot{}, ErrSuperseded
	}
	m.phase = PhasePaid
	receipt := m.snapshotLocked()

	// Fresh cycle: bump the generation so any stray callback from this
	// session is dropped, and clear every session-scoped field.
	m.gen++
	m.phase = PhaseIdle
	m.bookingID = ""
	m.vehicleID = 0
	m.committed = 0
	m.elapsed = 0
	m.warning = false
	m.acked = false
	m.settlement = nil
	m.mu.Unlock()

	m.emit(receipt)
	return receipt, nil
}

// Snapshot returns a consistent copy of the current session state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:                m.phase,
		BookingID:            m.bookingID,
		VehicleID:            m.vehicleID,
		CommittedSeconds:     m.committed,
		ElapsedSeconds:       m.elapsed,
		OvertimeWarning:      m.warning,
		OvertimeAcknowledged: m.acked,
	}
	if m.settlement != nil {
		s := *m.settlement
		snap.Settlement = &s
	}
	return snap
}

func (m *Machine) emit(snap Snapshot) {
	if m.notify != nil {
		m.notify(snap)
	}
}
