package ride

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeService is an in-process stand-in for the rental service with
// scriptable failures and a call log.
type fakeService struct {
	mu         sync.Mutex
	calls      []string
	bookErr    error
	startErr   error
	endErr     error
	payErr     error
	bookingID  string
	settlement Settlement
}

func newFakeService() *fakeService {
	return &fakeService{
		bookingID:  "bk-1",
		settlement: Settlement{DurationMins: 12, Amount: 39},
	}
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) Book(_ context.Context, _ int, _ string) error {
	f.record("book")
	return f.bookErr
}

func (f *fakeService) StartRide(_ context.Context, _ int, _ string) (string, error) {
	f.record("start")
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.bookingID, nil
}

func (f *fakeService) EndRide(_ context.Context, _ int, _ string) (Settlement, error) {
	f.record("end")
	if f.endErr != nil {
		return Settlement{}, f.endErr
	}
	return f.settlement, nil
}

func (f *fakeService) Pay(_ context.Context, _ string) error {
	f.record("pay")
	return f.payErr
}

func available() Vehicle {
	return Vehicle{ID: 1, Location: "Hostel", Status: VehicleAvailable}
}

// quietMachine returns a machine whose real clock effectively never fires,
// so tests can drive ticks deterministically via tick().
func quietMachine(svc Service) *Machine {
	return NewMachine(svc, "User1", time.Hour)
}

func TestBeginStartsRiding(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	snap, err := m.Begin(context.Background(), available(), 600)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if snap.Phase != PhaseRiding {
		t.Fatalf("phase = %q, want %q", snap.Phase, PhaseRiding)
	}
	if snap.ElapsedSeconds != 0 {
		t.Fatalf("elapsed = %d, want 0", snap.ElapsedSeconds)
	}
	if snap.BookingID != "bk-1" {
		t.Fatalf("bookingID = %q, want %q", snap.BookingID, "bk-1")
	}
	if snap.CommittedSeconds != 600 {
		t.Fatalf("committed = %d, want 600", snap.CommittedSeconds)
	}
	if snap.OvertimeWarning || snap.OvertimeAcknowledged {
		t.Fatalf("fresh session carries overtime state: %+v", snap)
	}
}

func TestBeginRejectsUnavailableVehicleLocally(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)

	_, err := m.Begin(context.Background(), Vehicle{ID: 2, Status: "booked"}, 600)
	if !errors.Is(err, ErrVehicleUnavailable) {
		t.Fatalf("Begin() error = %v, want ErrVehicleUnavailable", err)
	}
	if n := svc.callCount(); n != 0 {
		t.Fatalf("remote calls = %d, want 0 for local rejection", n)
	}
}

func TestBeginRefusedWhileRiding(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	before := svc.callCount()
	_, err := m.Begin(context.Background(), available(), 600)
	if !errors.Is(err, ErrActiveSession) {
		t.Fatalf("second Begin() error = %v, want ErrActiveSession", err)
	}
	if n := svc.callCount(); n != before {
		t.Fatalf("second Begin issued remote calls: %d -> %d", before, n)
	}
}

func TestBookFailureStaysIdle(t *testing.T) {
	svc := newFakeService()
	svc.bookErr = errors.New("Scooty is not available")
	m := quietMachine(svc)

	_, err := m.Begin(context.Background(), available(), 600)
	if err == nil {
		t.Fatalf("Begin() expected error when book fails")
	}
	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("phase = %q, want %q", got, PhaseIdle)
	}
	for _, call := range svc.calls {
		if call == "start" {
			t.Fatalf("start issued after failed book")
		}
	}
}

func TestStartFailureAfterBookStaysIdle(t *testing.T) {
	svc := newFakeService()
	svc.startErr = errors.New("Booking not found or already started")
	m := quietMachine(svc)

	_, err := m.Begin(context.Background(), available(), 600)
	if err == nil {
		t.Fatalf("Begin() expected error when start fails")
	}
	if got := m.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("phase = %q, want %q", got, PhaseIdle)
	}
}

func TestOvertimeWarnsFirstAtTick601(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	gen := m.gen
	for i := 0; i < 600; i++ {
		m.tick(gen)
	}
	if snap := m.Snapshot(); snap.OvertimeWarning {
		t.Fatalf("tick 600 warned; strict > means it must not")
	}
	m.tick(gen)
	snap := m.Snapshot()
	if !snap.OvertimeWarning {
		t.Fatalf("tick 601 did not warn")
	}
	if snap.ElapsedSeconds != 601 {
		t.Fatalf("elapsed = %d, want 601", snap.ElapsedSeconds)
	}
}

func TestZeroCommittedNeverWarns(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	if _, err := m.Begin(context.Background(), available(), 0); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	gen := m.gen
	for i := 0; i < 2000; i++ {
		m.tick(gen)
	}
	if m.Snapshot().OvertimeWarning {
		t.Fatalf("warning raised with zero committed duration")
	}
}

func TestContinueSuppressesFurtherWarnings(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	if _, err := m.Begin(context.Background(), available(), 10); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	gen := m.gen
	for i := 0; i < 11; i++ {
		m.tick(gen)
	}
	if !m.Snapshot().OvertimeWarning {
		t.Fatalf("expected warning past committed duration")
	}

	snap, err := m.ContinueRide()
	if err != nil {
		t.Fatalf("ContinueRide() error = %v", err)
	}
	if !snap.OvertimeAcknowledged || snap.OvertimeWarning {
		t.Fatalf("continue did not resolve the prompt: %+v", snap)
	}
	if n := svc.callCount(); n != 2 {
		t.Fatalf("continue must not issue remote calls, got %d total", n)
	}

	for i := 0; i < 100; i++ {
		m.tick(gen)
	}
	if m.Snapshot().OvertimeWarning {
		t.Fatalf("warning re-raised after acknowledgement")
	}
}

func TestEndFreezesElapsedAndRecordsSettlement(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	gen := m.gen
	for i := 0; i < 30; i++ {
		m.tick(gen)
	}

	snap, err := m.End(context.Background())
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if snap.Phase != PhaseEnded {
		t.Fatalf("phase = %q, want %q", snap.Phase, PhaseEnded)
	}
	if snap.Settlement == nil || snap.Settlement.DurationMins != 12 || snap.Settlement.Amount != 39 {
		t.Fatalf("settlement = %+v, want {12 39}", snap.Settlement)
	}

	// A stray tick from the ride must be a no-op now.
	m.tick(gen)
	if got := m.Snapshot().ElapsedSeconds; got != 30 {
		t.Fatalf("elapsed moved after end: %d, want 30", got)
	}
}

func TestEndFailureKeepsRidingAndIsRetryable(t *testing.T) {
	svc := newFakeService()
	svc.endErr = errors.New("network down")
	m := quietMachine(svc)

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if _, err := m.End(context.Background()); err == nil {
		t.Fatalf("End() expected error")
	}
	if got := m.Snapshot().Phase; got != PhaseRiding {
		t.Fatalf("phase after failed end = %q, want %q", got, PhaseRiding)
	}

	svc.endErr = nil
	snap, err := m.End(context.Background())
	if err != nil {
		t.Fatalf("End() retry error = %v", err)
	}
	if snap.Phase != PhaseEnded {
		t.Fatalf("phase after retry = %q, want %q", snap.Phase, PhaseEnded)
	}
}

func TestPayResetsToIdle(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if _, err := m.End(context.Background()); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	receipt, err := m.Pay(context.Background())
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if receipt.Phase != PhasePaid {
		t.Fatalf("receipt phase = %q, want %q", receipt.Phase, PhasePaid)
	}
	if receipt.Settlement == nil {
		t.Fatalf("receipt lost the settlement")
	}

	snap := m.Snapshot()
	if snap.Phase != PhaseIdle {
		t.Fatalf("phase after pay = %q, want %q", snap.Phase, PhaseIdle)
	}
	if snap.BookingID != "" || snap.Settlement != nil || snap.ElapsedSeconds != 0 {
		t.Fatalf("session not cleared after pay: %+v", snap)
	}
}

func TestPayFailureKeepsEnded(t *testing.T) {
	svc := newFakeService()
	svc.payErr = errors.New("gateway timeout")
	m := quietMachine(svc)

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if _, err := m.End(context.Background()); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if _, err := m.Pay(context.Background()); err == nil {
		t.Fatalf("Pay() expected error")
	}

	snap := m.Snapshot()
	if snap.Phase != PhaseEnded {
		t.Fatalf("phase = %q, want %q", snap.Phase, PhaseEnded)
	}
	if snap.Settlement == nil {
		t.Fatalf("settlement lost on failed pay")
	}
}

func TestPayRequiresEndedPhase(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)

	if _, err := m.Pay(context.Background()); !errors.Is(err, ErrNothingToPay) {
		t.Fatalf("Pay() on idle = %v, want ErrNothingToPay", err)
	}
	if _, err := m.End(context.Background()); !errors.Is(err, ErrNoActiveRide) {
		t.Fatalf("End() on idle = %v, want ErrNoActiveRide", err)
	}
	if _, err := m.ContinueRide(); !errors.Is(err, ErrNoActiveRide) {
		t.Fatalf("ContinueRide() on idle = %v, want ErrNoActiveRide", err)
	}
}

func TestRealClockDrivesElapsedAndFreezesOnEnd(t *testing.T) {
	svc := newFakeService()
	m := NewMachine(svc, "User1", 10*time.Millisecond)

	if _, err := m.Begin(context.Background(), available(), 600); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if got := m.Snapshot().ElapsedSeconds; got < 3 {
		t.Fatalf("elapsed = %d after 60ms of 10ms ticks, want >= 3", got)
	}

	snap, err := m.End(context.Background())
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	frozen := snap.ElapsedSeconds
	time.Sleep(40 * time.Millisecond)
	if got := m.Snapshot().ElapsedSeconds; got != frozen {
		t.Fatalf("elapsed moved after end: %d -> %d", frozen, got)
	}
}

func TestNotifyObservesWarning(t *testing.T) {
	svc := newFakeService()
	m := quietMachine(svc)
	defer m.ticker.Stop()

	var mu sync.Mutex
	warned := false
	m.SetNotify(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.OvertimeWarning {
			warned = true
		}
	})

	if _, err := m.Begin(context.Background(), available(), 5); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	gen := m.gen
	for i := 0; i < 6; i++ {
		m.tick(gen)
	}

	mu.Lock()
	defer mu.Unlock()
	if !warned {
		t.Fatalf("notify never observed the overtime warning")
	}
}
