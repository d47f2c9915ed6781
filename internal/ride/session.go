package ride

import (
	"context"
	"errors"
)

// Phase is the lifecycle state of a rental session.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseRiding Phase = "riding"
	PhaseEnded  Phase = "ended"
	PhasePaid   Phase = "paid"
)

const VehicleAvailable = "available"

var (
	ErrActiveSession      = errors.New("a ride is already in progress")
	ErrVehicleUnavailable = errors.New("vehicle is not available")
	ErrNoActiveRide       = errors.New("no ride in progress")
	ErrNothingToPay       = errors.New("no ended ride awaiting payment")
	ErrSuperseded         = errors.New("session state changed while the call was in flight")
)

// Vehicle is the listing entry a rider chooses from. It is read-only to the
// session machine; only Status gates whether a ride may begin.
type Vehicle struct {
	ID       int    `json:"id"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

// Settlement holds the billed duration and amount the service computed when
// the ride ended. It never changes after the end call succeeds.
type Settlement struct {
	DurationMins int     `json:"duration_mins"`
	Amount       float64 `json:"amount"`
}

// Snapshot is a consistent copy of the session state at one instant.
type Snapshot struct {
	Phase                Phase
	BookingID            string
	VehicleID            int
	CommittedSeconds     int
	ElapsedSeconds       int
	OvertimeWarning      bool
	OvertimeAcknowledged bool
	Settlement           *Settlement
}

// Service is the remote rental service the machine drives. Implementations
// must return a nil error only when the service confirmed the operation.
type Service interface {
	Book(ctx context.Context, vehicleID int, user string) error
	StartRide(ctx context.Context, vehicleID int, user string) (bookingID string, err error)
	EndRide(ctx context.Context, vehicleID int, user string) (Settlement, error)
	Pay(ctx context.Context, bookingID string) error
}
