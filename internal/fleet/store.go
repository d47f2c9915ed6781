package fleet

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found in store")
	ErrBookingNotFound = errors.New("booking not found in store")
)

type Store interface {
	ListVehicles(ctx context.Context) ([]Vehicle, error)
	GetVehicle(ctx context.Context, id int) (Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, id int, status VehicleStatus) error

	CreateBooking(ctx context.Context, b Booking) error
	UpdateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	// FindBooking returns the booking for the vehicle/user pair currently in
	// the given ride status, if any.
	FindBooking(ctx context.Context, vehicleID int, user string, status RideStatus) (Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error

	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise an
// in-memory store seeded with the default fleet.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(DefaultFleet()), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// DefaultFleet is the campus seed data used when the store starts empty.
func DefaultFleet() []Vehicle {
	return []Vehicle{
		{ID: 1, Location: "Hostel", Status: VehicleAvailable},
		{ID: 2, Location: "Clock Tower", Status: VehicleAvailable},
		{ID: 3, Location: "EEE-block", Status: VehicleAvailable},
	}
}
