package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the scooter rental service and
// the terminal rider client.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	// Rider client settings.
	APIBaseURL   string
	RiderName    string
	TickInterval time.Duration
	PollInterval time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("SCOOT_BIND_ADDR", ":8000"),
		MetricsNamespace: envOrDefault("SCOOT_METRICS_NAMESPACE", "scootflow"),
		AllowAnyOrigin:   false,
		DatabaseURL:      trimmedEnv("DATABASE_URL"),
		APIBaseURL:       envOrDefault("SCOOT_API_URL", "http://localhost:8000"),
		// The acting user is a fixed placeholder identity for now.
		RiderName:       envOrDefault("SCOOT_RIDER_NAME", "User1"),
		ShutdownTimeout: 15 * time.Second,
		TickInterval:    time.Second,
		PollInterval:    5 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("SCOOT_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TickInterval, err = durationFromEnv("SCOOT_TICK_INTERVAL", cfg.TickInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.PollInterval, err = durationFromEnv("SCOOT_POLL_INTERVAL", cfg.PollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("SCOOT_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("SCOOT_TICK_INTERVAL must be positive")
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("SCOOT_POLL_INTERVAL must be positive")
	}
	if strings.TrimSpace(cfg.RiderName) == "" {
		return Config{}, fmt.Errorf("SCOOT_RIDER_NAME must not be blank")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
