package fleet

import "time"

// Pricing model: base fare plus a per-minute rate, counted in whole minutes.
const (
	BaseFare      = 15.0
	PerMinuteFare = 2.0
)

// Price computes the fare for a completed ride of the given duration.
// Negative durations (clock skew between start and end rows) price as zero
// minutes rather than crediting the rider.
func Price(duration time.Duration) float64 {
	mins := int(duration.Minutes())
	if mins < 0 {
		mins = 0
	}
	return BaseFare + float64(mins)*PerMinuteFare
}

// Estimate prices a planned ride of the given committed minutes, shown to
// the rider before starting.
func Estimate(minutes int) float64 {
	if minutes < 0 {
		minutes = 0
	}
	return BaseFare + float64(minutes)*PerMinuteFare
}
