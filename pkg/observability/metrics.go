// Package observability provides Prometheus metrics for the strom
// streaming client.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StreamBuckets defines histogram buckets suited for long-lived event
// stream lifetimes, ranging from 500ms to 1h.
var StreamBuckets = []float64{0.5, 1, 5, 15, 60, 300, 900, 3600}

var (
	// EventsTotal counts decoded events by event type.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_events_total",
			Help: "Decoded events",
		},
		[]string{"event"},
	)

	// BytesTotal counts raw bytes fed to the decoder.
	BytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strom_bytes_total",
			Help: "Raw stream bytes consumed",
		},
	)

	// StreamsActive tracks the number of open subscriptions.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strom_streams_active",
			Help: "Active subscriptions",
		},
	)

	// StreamDuration records subscription lifetime in seconds by outcome.
	StreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_stream_duration_seconds",
			Help:    "Subscription duration",
			Buckets: StreamBuckets,
		},
		[]string{"outcome"},
	)

	// StreamErrorsTotal counts failed subscriptions by reason.
	StreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_stream_errors_total",
			Help: "Subscription failures",
		},
		[]string{"reason"},
	)

	// RecordErrorsTotal counts events that could not be persisted.
	RecordErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strom_record_errors_total",
			Help: "Recorder write failures",
		},
	)
)

// Outcome labels for StreamDuration.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		BytesTotal,
		StreamsActive,
		StreamDuration,
		StreamErrorsTotal,
		RecordErrorsTotal,
	)
}
