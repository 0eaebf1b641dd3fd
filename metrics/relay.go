package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		requestsReceivedTotal,
		resolutionsTotal,
		resolutionLatencySeconds,
		deliveriesTotal,
	)
}

var (
	requestsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_requests_received_total",
			Help: "Inbound chat messages routed to a handler, by command (\"text\" for bare links).",
		},
		[]string{"command"},
	)

	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_resolutions_total",
			Help: "Resolution API calls by result (ok, transport, malformed, rejected).",
		},
		[]string{"result"},
	)

	resolutionLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_resolution_latency_seconds",
			Help:    "Latency of resolution API calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Finished deliveries by media kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncRequest(command string) {
	if command == "" {
		command = "text"
	}
	requestsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func ObserveResolution(result string, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(norm(result)).Inc()
	resolutionLatencySeconds.Observe(elapsed.Seconds())
}

func IncDelivery(kind, outcome string) {
	deliveriesTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
