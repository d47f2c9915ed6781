package fleet

import (
	"testing"
	"time"
)

func TestPriceWholeMinutes(t *testing.T) {
	cases := []struct {
		duration time.Duration
		want     float64
	}{
		{0, 15},
		{59 * time.Second, 15},
		{time.Minute, 17},
		{12*time.Minute + 30*time.Second, 39},
		{60 * time.Minute, 135},
		{-time.Minute, 15},
	}
	for _, tc := range cases {
		if got := Price(tc.duration); got != tc.want {
			t.Fatalf("Price(%v) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}

func TestEstimateMatchesSlider(t *testing.T) {
	if got := Estimate(0); got != 15 {
		t.Fatalf("Estimate(0) = %v, want 15", got)
	}
	if got := Estimate(30); got != 75 {
		t.Fatalf("Estimate(30) = %v, want 75", got)
	}
	if got := Estimate(-5); got != 15 {
		t.Fatalf("Estimate(-5) = %v, want 15", got)
	}
}
