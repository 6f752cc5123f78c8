// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playq_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playq_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playq_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist service metrics
var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playq_operations_total",
			Help: "Total number of playlist and session operations",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playq_operation_duration_seconds",
			Help:    "Playlist and session operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	EventsPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playq_event_publish_failures_total",
			Help: "Change notifications that could not be published",
		},
	)
)

// Feed metrics
var (
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playq_feed_fetches_total",
			Help: "Total number of feed fetches",
		},
		[]string{"status"},
	)

	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playq_feed_fetch_duration_seconds",
			Help:    "Feed fetch and parse duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	FeedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playq_feed_entries_total",
			Help: "Total number of normalized feed entries",
		},
	)
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ObserveOperation records the outcome and duration of a service operation started at start.
func ObserveOperation(operation string, start time.Time, err error) {
	OperationsTotal.WithLabelValues(operation, statusOf(err)).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveFeedFetch records a feed fetch started at start that produced entries.
func ObserveFeedFetch(start time.Time, entries int, err error) {
	FeedFetchesTotal.WithLabelValues(statusOf(err)).Inc()
	FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		FeedEntriesTotal.Add(float64(entries))
	}
}

// RegisterDBStats exports connection pool statistics for db.
// Registering the same pool twice is not an error.
func RegisterDBStats(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
