// Package observability provides Prometheus metrics, HTTP middleware and
// OpenTelemetry tracing setup for the transformation service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LatencyBuckets covers transformation latencies from 5ms to 10s.
var LatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// SizeBuckets covers stylesheet sizes from 256 bytes to 4 MiB.
var SizeBuckets = prometheus.ExponentialBuckets(256, 4, 8)

var (
	// RequestsTotal counts HTTP requests by status class and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xsltfn_requests_total",
			Help: "Total requests",
		},
		[]string{"status", "outcome"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xsltfn_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LatencyBuckets,
		},
		[]string{"outcome"},
	)

	// FailuresTotal counts failed invocations by error kind.
	FailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xsltfn_failures_total",
			Help: "Failed invocations by error kind",
		},
		[]string{"kind"},
	)

	// StageDuration records time spent in each pipeline stage.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xsltfn_stage_duration_seconds",
			Help:    "Pipeline stage duration",
			Buckets: LatencyBuckets,
		},
		[]string{"stage"},
	)

	// StorageFetchesTotal counts stylesheet downloads by driver and result.
	StorageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xsltfn_storage_fetches_total",
			Help: "Stylesheet fetches",
		},
		[]string{"driver", "status"},
	)

	// StorageFetchDuration records stylesheet download latency by driver.
	StorageFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xsltfn_storage_fetch_duration_seconds",
			Help:    "Stylesheet fetch latency",
			Buckets: LatencyBuckets,
		},
		[]string{"driver"},
	)

	// StylesheetSize records the size of fetched stylesheets in bytes.
	StylesheetSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xsltfn_stylesheet_bytes",
			Help:    "Fetched stylesheet size",
			Buckets: SizeBuckets,
		},
	)

	// AuthRejectedTotal counts requests rejected by function-key auth.
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xsltfn_auth_rejected_total",
			Help: "Authentication rejections",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		FailuresTotal,
		StageDuration,
		StorageFetchesTotal,
		StorageFetchDuration,
		StylesheetSize,
		AuthRejectedTotal,
	)
}
