package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveRides      prometheus.Gauge
	RideEvents       *prometheus.CounterVec
	TelemetryReports *prometheus.CounterVec
	FeedClients      prometheus.Gauge
	SettlementAmount prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveRides: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rides",
			Help:      "Number of rides currently in progress.",
		}),
		RideEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ride_events_total",
			Help:      "Ride lifecycle events by type.",
		}, []string{"event"}),
		TelemetryReports: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_reports_total",
			Help:      "Ingested position reports by outcome.",
		}, []string{"outcome"}),
		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Connected live-position websocket subscribers.",
		}),
		SettlementAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_amount",
			Help:      "Final billed amount per ride in rupees.",
			Buckets:   []float64{15, 25, 45, 75, 105, 135, 200, 300},
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
