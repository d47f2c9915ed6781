package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ssneflow/scootflow/internal/observability"
)

// Service implements the rental operations behind the HTTP API. Business
// refusals ("Scooty is not available", "Active ride not found") are carried
// in Result.Message, matching the wording the original service used; errors
// are reserved for store failures.
type Service struct {
	store   Store
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(store Store, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Result is the response body for every rental operation.
type Result struct {
	Message     string       `json:"message"`
	Booking     *Booking     `json:"bookings,omitempty"`
	RideDetails *RideDetails `json:"ride_details,omitempty"`
}

func (s *Service) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

func (s *Service) ListBookings(ctx context.Context) ([]Booking, error) {
	return s.store.ListBookings(ctx)
}

// Book reserves an available vehicle and creates the booking row.
func (s *Service) Book(ctx context.Context, vehicleID int, user string) (Result, error) {
	vehicle, err := s.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, ErrVehicleNotFound) {
			return Result{Message: "Scooty ID not found!"}, nil
		}
		return Result{}, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle.Status != VehicleAvailable {
		return Result{Message: "Scooty is not available"}, nil
	}

	if err := s.store.UpdateVehicleStatus(ctx, vehicleID, VehicleBooked); err != nil {
		return Result{}, fmt.Errorf("mark vehicle booked: %w", err)
	}
	booking := Booking{
		ID:            uuid.NewString(),
		VehicleID:     vehicleID,
		User:          user,
		Status:        "booked",
		RideStatus:    RideNotStarted,
		PaymentStatus: PaymentPending,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return Result{}, fmt.Errorf("create booking: %w", err)
	}
	s.event("booked")
	return Result{Message: "Scooty booked successfully", Booking: &booking}, nil
}

// StartRide flips the rider's pending booking to riding and stamps the start
// time the fare will be computed from.
func (s *Service) StartRide(ctx context.Context, vehicleID int, user string) (Result, error) {
	booking, err := s.store.FindBooking(ctx, vehicleID, user, RideNotStarted)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return Result{Message: "Booking not found or already started"}, nil
		}
		return Result{}, fmt.Errorf("find booking: %w", err)
	}

	now := s.now()
	booking.RideStatus = RideRiding
	booking.StartTime = &now
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return Result{}, fmt.Errorf("update booking: %w", err)
	}
	s.event("started")
	if s.metrics != nil {
		s.metrics.ActiveRides.Inc()
	}
	return Result{Message: "Ride started", Booking: &booking}, nil
}

// EndRide closes the active ride, prices it, and frees the vehicle.
func (s *Service) EndRide(ctx context.Context, vehicleID int, user string) (Result, error) {
	booking, err := s.store.FindBooking(ctx, vehicleID, user, RideRiding)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return Result{Message: "Active ride not found"}, nil
		}
		return Result{}, fmt.Errorf("find active ride: %w", err)
	}

	now := s.now()
	booking.RideStatus = RideEnded
	booking.EndTime = &now

	var duration time.Duration
	if booking.StartTime != nil {
		duration = now.Sub(*booking.StartTime)
	}
	booking.TotalAmount = Price(duration)

	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return Result{}, fmt.Errorf("update booking: %w", err)
	}
	if err := s.store.UpdateVehicleStatus(ctx, vehicleID, VehicleAvailable); err != nil && !errors.Is(err, ErrVehicleNotFound) {
		return Result{}, fmt.Errorf("release vehicle: %w", err)
	}

	mins := int(duration.Minutes())
	if mins < 0 {
		mins = 0
	}
	details := RideDetails{DurationMins: mins, Amount: booking.TotalAmount}
	s.event("ended")
	if s.metrics != nil {
		s.metrics.ActiveRides.Dec()
		s.metrics.SettlementAmount.Observe(booking.TotalAmount)
	}
	return Result{Message: "Ride ended", Booking: &booking, RideDetails: &details}, nil
}

// Pay marks the booking paid. Paying twice is acknowledged, not an error.
func (s *Service) Pay(ctx context.Context, bookingID string) (Result, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return Result{}, ErrBookingNotFound
		}
		return Result{}, fmt.Errorf("load booking: %w", err)
	}
	if booking.PaymentStatus == PaymentPaid {
		return Result{Message: "Already paid"}, nil
	}

	booking.PaymentStatus = PaymentPaid
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return Result{}, fmt.Errorf("update booking: %w", err)
	}
	s.event("paid")
	return Result{Message: "Payment successful"}, nil
}

// Cancel removes a reservation that never started riding.
func (s *Service) Cancel(ctx context.Context, vehicleID int, user string) (Result, error) {
	booking, err := s.store.FindBooking(ctx, vehicleID, user, RideNotStarted)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return Result{Message: "Booking not found available for cancellation"}, nil
		}
		return Result{}, fmt.Errorf("find booking: %w", err)
	}

	if err := s.store.DeleteBooking(ctx, booking.ID); err != nil {
		return Result{}, fmt.Errorf("delete booking: %w", err)
	}
	if err := s.store.UpdateVehicleStatus(ctx, vehicleID, VehicleAvailable); err != nil && !errors.Is(err, ErrVehicleNotFound) {
		return Result{}, fmt.Errorf("release vehicle: %w", err)
	}
	s.event("cancelled")
	cancelled := Booking{VehicleID: vehicleID, User: user, Status: "cancelled"}
	return Result{Message: "Booking cancelled", Booking: &cancelled}, nil
}

func (s *Service) event(name string) {
	if s.metrics != nil {
		s.metrics.RideEvents.WithLabelValues(name).Inc()
	}
}
