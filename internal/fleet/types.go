package fleet

import "time"

type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleBooked    VehicleStatus = "booked"
)

type RideStatus string

const (
	RideNotStarted RideStatus = "not_started"
	RideRiding     RideStatus = "riding"
	RideEnded      RideStatus = "ended"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Vehicle is one scooter in the fleet.
type Vehicle struct {
	ID       int           `json:"id"`
	Location string        `json:"location"`
	Status   VehicleStatus `json:"status"`
}

// Booking tracks one rental from reservation through payment.
type Booking struct {
	ID            string        `json:"id"`
	VehicleID     int           `json:"scooter_id"`
	User          string        `json:"user"`
	Status        string        `json:"status"`
	RideStatus    RideStatus    `json:"ride_status"`
	StartTime     *time.Time    `json:"start_time"`
	EndTime       *time.Time    `json:"end_time"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// RideDetails is the settlement block returned when a ride ends.
type RideDetails struct {
	DurationMins int     `json:"duration_mins"`
	Amount       float64 `json:"amount"`
}
