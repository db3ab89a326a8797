package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Link generation metrics
	LinkGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afflink_link_generations_total",
			Help: "Total number of affiliate link generations",
		},
		[]string{"method", "merchant", "outcome"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afflink_fallbacks_total",
			Help: "Total number of cross-strategy fallback attempts",
		},
		[]string{"from", "to"},
	)

	// Provider metrics
	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afflink_provider_request_duration_seconds",
			Help:    "Duration of outbound provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Click tracking metrics
	LinkClicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afflink_link_clicks_total",
			Help: "Total number of tracked outbound clicks",
		},
		[]string{"device_type"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afflink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// RecordGeneration increments the generation counter for one attempt.
func RecordGeneration(method, merchant, outcome string) {
	LinkGenerationsTotal.WithLabelValues(method, merchant, outcome).Inc()
}

// RecordFallback increments the fallback transition counter.
func RecordFallback(from, to string) {
	FallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordClick increments the outbound click counter.
func RecordClick(deviceType string) {
	LinkClicksTotal.WithLabelValues(deviceType).Inc()
}

// TrackProviderRequest returns a function that records the duration of a
// provider call.
func TrackProviderRequest() func(startTime time.Time) {
	return func(startTime time.Time) {
		ProviderRequestDuration.Observe(time.Since(startTime).Seconds())
	}
}
