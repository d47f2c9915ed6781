// Package rentalapi is the HTTP client for the scooter rental service. The
// service signals success through human-readable messages, so the client
// keys on the same message substrings the original frontend checked.
package rentalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ssneflow/scootflow/internal/reliability"
	"github.com/ssneflow/scootflow/internal/ride"
	"github.com/ssneflow/scootflow/internal/telemetry"
)

// RejectionError is a business-level refusal from the service ("Scooty is
// not available", "Active ride not found", ...). The operation did not
// happen; re-issuing it is up to the user.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// StatusError is a transport-level failure (non-2xx response).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rental api status %d: %s", e.Code, e.Body)
}

// Retryable reports whether re-issuing the request could succeed.
func (e *StatusError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.Code)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return NewWithClient(baseURL, &http.Client{Timeout: 60 * time.Second})
}

func NewWithClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

// ListVehicles fetches the current fleet listing.
func (c *Client) ListVehicles(ctx context.Context) ([]ride.Vehicle, error) {
	var vehicles []ride.Vehicle
	if err := c.get(ctx, "/scooty", &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Book reserves the vehicle for the rider.
func (c *Client) Book(ctx context.Context, vehicleID int, user string) error {
	var res struct {
		Message string `json:"message"`
	}
	payload := map[string]any{"scooty_id": vehicleID, "user": user}
	if err := c.post(ctx, "/book", payload, &res); err != nil {
		return err
	}
	if !strings.Contains(res.Message, "successfully") {
		return &RejectionError{Message: res.Message}
	}
	return nil
}

// StartRide activates the remote ride timer and returns the booking ID that
// payment will reference.
func (c *Client) StartRide(ctx context.Context, vehicleID int, user string) (string, error) {
	var res struct {
		Message  string `json:"message"`
		Bookings struct {
			ID string `json:"id"`
		} `json:"bookings"`
	}
	payload := map[string]any{"scooter_id": vehicleID, "user": user}
	if err := c.post(ctx, "/start-ride", payload, &res); err != nil {
		return "", err
	}
	if !strings.Contains(res.Message, "started") {
		return "", &RejectionError{Message: res.Message}
	}
	return res.Bookings.ID, nil
}

// EndRide settles the ride and returns the billed duration and amount.
func (c *Client) EndRide(ctx context.Context, vehicleID int, user string) (ride.Settlement, error) {
	var res struct {
		Message     string          `json:"message"`
		RideDetails ride.Settlement `json:"ride_details"`
	}
	payload := map[string]any{"scooter_id": vehicleID, "user": user}
	if err := c.post(ctx, "/end-ride", payload, &res); err != nil {
		return ride.Settlement{}, err
	}
	if !strings.Contains(res.Message, "ended") {
		return ride.Settlement{}, &RejectionError{Message: res.Message}
	}
	return res.RideDetails, nil
}

// Pay settles payment for the booking.
func (c *Client) Pay(ctx context.Context, bookingID string) error {
	var res struct {
		Message string `json:"message"`
	}
	payload := map[string]any{"booking_id": bookingID}
	if err := c.post(ctx, "/pay-ride", payload, &res); err != nil {
		return err
	}
	if !strings.Contains(res.Message, "successful") && !strings.Contains(res.Message, "paid") {
		return &RejectionError{Message: res.Message}
	}
	return nil
}

// Position fetches the latest tracked position. Non-numeric coordinates are
// returned as NaN so Report.Valid flags them, mirroring how the tracking view
// coerced telemetry with Number() before applying it.
func (c *Client) Position(ctx context.Context) (telemetry.Report, error) {
	var res struct {
		ScooterID   string     `json:"scooter_id"`
		Latitude    any        `json:"latitude"`
		Longitude   any        `json:"longitude"`
		LastUpdated *time.Time `json:"last_updated"`
	}
	// Cache-busting token, same trick as the browser client.
	path := fmt.Sprintf("/api/location?t=%d", time.Now().UnixNano())
	if err := c.get(ctx, path, &res); err != nil {
		return telemetry.Report{}, err
	}
	return telemetry.Report{
		ScooterID:   res.ScooterID,
		Latitude:    coerceFloat(res.Latitude),
		Longitude:   coerceFloat(res.Longitude),
		LastUpdated: res.LastUpdated,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
