package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts mediated requests by class and outcome (live, offline, failed)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_requests_total",
			Help: "Total number of mediated requests",
		},
		[]string{"class", "outcome"},
	)

	// UpstreamLatency tracks movie API call latency
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviesync_upstream_latency_seconds",
			Help:    "Movie API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)

	// UpstreamErrorsTotal tracks failed upstream calls by error type (transport, status)
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_upstream_errors_total",
			Help: "Total number of failed movie API calls",
		},
		[]string{"class", "error_type"},
	)

	// RetriesArmedTotal counts pending requests written after a failed first attempt
	RetriesArmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_retries_armed_total",
			Help: "Total number of armed background retries",
		},
		[]string{"class"},
	)

	// RetriesTotal counts retry wake-ups by result (success, failed, noop)
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_retries_total",
			Help: "Total number of background retry wake-ups",
		},
		[]string{"class", "result"},
	)

	// StagedResultsTotal counts results staged for the next launch
	StagedResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_staged_results_total",
			Help: "Total number of staged results",
		},
		[]string{"class"},
	)

	// NotificationsTotal counts notifications by result (sent, suppressed, failed)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviesync_notifications_total",
			Help: "Total number of user notifications",
		},
		[]string{"result"},
	)

	// ConnectivityOnline is 1 when the last connectivity probe succeeded
	ConnectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviesync_connectivity_online",
			Help: "Whether the movie API was reachable on the last probe",
		},
	)

	// SyncRegistrations tracks the number of registered background sync tags
	SyncRegistrations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviesync_sync_registrations",
			Help: "Number of background sync tags waiting for connectivity",
		},
	)

	// DBConnectionPoolUsage tracks the percentage of open connections in use
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviesync_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
