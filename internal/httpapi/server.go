package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ssneflow/scootflow/internal/config"
	"github.com/ssneflow/scootflow/internal/fleet"
	"github.com/ssneflow/scootflow/internal/observability"
	"github.com/ssneflow/scootflow/internal/telemetry"
)

type Server struct {
	cfg      config.Config
	rentals  *fleet.Service
	tracker  *telemetry.Tracker
	feed     *Feed
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, rentals *fleet.Service, tracker *telemetry.Tracker, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		rentals: rentals,
		tracker: tracker,
		feed:    NewFeed(metrics),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only same-origin browser subscribers. Non-browser
				// clients omit Origin and are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/scooty", s.handleListVehicles)
	r.Get("/get-bookings", s.handleListBookings)
	r.Post("/book", s.handleBook)
	r.Post("/start-ride", s.handleStartRide)
	r.Post("/end-ride", s.handleEndRide)
	r.Post("/pay-ride", s.handlePayRide)
	r.Post("/cancel", s.handleCancel)

	r.Get("/api/location", s.handleGetLocation)
	r.Post("/api/location", s.handlePostLocation)
	r.Get("/api/location/ws", s.handleLocationFeed)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.rentals.ListVehicles(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.rentals.ListVehicles(r.Context())
	if err != nil {
		serverError(w, "list vehicles", err)
		return
	}
	if vehicles == nil {
		vehicles = []fleet.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.rentals.ListBookings(r.Context())
	if err != nil {
		serverError(w, "list bookings", err)
		return
	}
	if bookings == nil {
		bookings = []fleet.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

type bookRequest struct {
	ScootyID int    `json:"scooty_id"`
	User     string `json:"user"`
}

type rideRequest struct {
	ScooterID int    `json:"scooter_id"`
	User      string `json:"user"`
}

type payRequest struct {
	BookingID string `json:"booking_id"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.rentals.Book(r.Context(), req.ScootyID, req.User)
	if err != nil {
		serverError(w, "book", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStartRide(w http.ResponseWriter, r *http.Request) {
	var req rideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.rentals.StartRide(r.Context(), req.ScooterID, req.User)
	if err != nil {
		serverError(w, "start ride", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEndRide(w http.ResponseWriter, r *http.Request) {
	var req rideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.rentals.EndRide(r.Context(), req.ScooterID, req.User)
	if err != nil {
		serverError(w, "end ride", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePayRide(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.rentals.Pay(r.Context(), req.BookingID)
	if err != nil {
		if errors.Is(err, fleet.ErrBookingNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Booking not found"})
			return
		}
		serverError(w, "pay ride", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.rentals.Cancel(r.Context(), req.ScootyID, req.User)
	if err != nil {
		serverError(w, "cancel", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Latest())
}

func (s *Server) handlePostLocation(w http.ResponseWriter, r *http.Request) {
	var report telemetry.Report
	if !decodeJSON(w, r, &report) {
		return
	}
	if !s.tracker.Update(report) {
		s.metrics.TelemetryReports.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid coordinates"})
		return
	}
	s.metrics.TelemetryReports.WithLabelValues("accepted").Inc()
	s.feed.Broadcast(s.tracker.Latest())
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleLocationFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("location feed upgrade failed: %v", err)
		return
	}
	s.feed.Subscribe(conn, s.tracker.Latest())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
}
