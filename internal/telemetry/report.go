package telemetry

import "time"

// Report is one position sample for a tracked scooter. The service treats it
// as best-effort data: consumers must validate before applying.
type Report struct {
	ScooterID   string     `json:"scooter_id"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	LastUpdated *time.Time `json:"last_updated"`
}

// Valid reports whether the sample carries a plausible position.
func (r Report) Valid() bool {
	if r.Latitude != r.Latitude || r.Longitude != r.Longitude { // NaN
		return false
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return false
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return false
	}
	return true
}
