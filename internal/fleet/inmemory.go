package fleet

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	vehicles map[int]Vehicle
	bookings map[string]Booking
}

func NewInMemoryStore(seed []Vehicle) *InMemoryStore {
	s := &InMemoryStore{
		vehicles: make(map[int]Vehicle),
		bookings: make(map[string]Booking),
	}
	for _, v := range seed {
		s.vehicles[v.ID] = v
	}
	return s
}

func (s *InMemoryStore) ListVehicles(_ context.Context) ([]Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) GetVehicle(_ context.Context, id int) (Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

func (s *InMemoryStore) UpdateVehicleStatus(_ context.Context, id int, status VehicleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrVehicleNotFound
	}
	v.Status = status
	s.vehicles[id] = v
	return nil
}

func (s *InMemoryStore) CreateBooking(_ context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
	return nil
}

func (s *InMemoryStore) UpdateBooking(_ context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *InMemoryStore) GetBooking(_ context.Context, id string) (Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (s *InMemoryStore) FindBooking(_ context.Context, vehicleID int, user string, status RideStatus) (Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.VehicleID == vehicleID && b.User == user && b.RideStatus == status {
			return b, nil
		}
	}
	return Booking{}, ErrBookingNotFound
}

func (s *InMemoryStore) ListBookings(_ context.Context) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return ErrBookingNotFound
	}
	delete(s.bookings, id)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
