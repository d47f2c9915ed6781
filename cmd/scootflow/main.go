package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ssneflow/scootflow/internal/config"
	"github.com/ssneflow/scootflow/internal/fleet"
	"github.com/ssneflow/scootflow/internal/httpapi"
	"github.com/ssneflow/scootflow/internal/observability"
	"github.com/ssneflow/scootflow/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := fleet.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("fleet store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("fleet store: in-memory (set DATABASE_URL for postgres)")
	} else {
		log.Printf("fleet store: postgres")
	}

	rentals := fleet.NewService(store, metrics)

	tracker := telemetry.NewTracker(telemetry.Report{
		ScooterID: "SCOOTER_1",
		Latitude:  12.752598,
		Longitude: 80.196944,
	})

	api := httpapi.New(cfg, rentals, tracker, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
