// Package metrics provides Prometheus metrics for hotfs operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolution metrics
	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_resolve_total",
			Help: "Total number of URI resolutions",
		},
		[]string{"scheme", "status"}, // status: "success", "invalid", "unsupported", "error"
	)

	// Backend operation metrics
	BackendOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_backend_ops_total",
			Help: "Total number of backend operations",
		},
		[]string{"scheme", "operation"},
	)

	ListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotfs_list_duration_seconds",
			Help:    "Recursive listing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheme"},
	)

	// Hotfolder metrics
	HotfolderTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_hotfolder_ticks_total",
			Help: "Total number of hotfolder scans",
		},
		[]string{"id"},
	)

	HotfolderTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotfs_hotfolder_tick_duration_seconds",
			Help:    "Hotfolder scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"id"},
	)

	HotfolderNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_hotfolder_notifications_total",
			Help: "Total number of settled-file notifications delivered",
		},
		[]string{"id"},
	)

	HotfolderTrackedFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hotfs_hotfolder_tracked_files",
			Help: "Number of files currently tracked by a hotfolder",
		},
		[]string{"id"},
	)

	HotfolderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_hotfolder_errors_total",
			Help: "Total number of hotfolder errors by stage",
		},
		[]string{"id", "stage"}, // stage: "folder", "list", "subscriber"
	)

	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotfs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotfs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Arrival event stream subscribers
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotfs_event_subscribers",
			Help: "Number of connected arrival event subscribers",
		},
	)
)

// RecordBackendOp counts one backend operation.
func RecordBackendOp(scheme, operation string) {
	BackendOpsTotal.WithLabelValues(scheme, operation).Inc()
}
