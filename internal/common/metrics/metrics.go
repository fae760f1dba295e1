// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReviewsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_generated_total",
			Help: "Total number of review generations by outcome",
		},
		[]string{"outcome"},
	)

	ReviewGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_generation_duration_seconds",
			Help:    "Duration of the upstream generation call in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
	)

	FrameworkFilesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "framework_files_loaded",
			Help: "Number of framework files parsed by the most recent load",
		},
	)

	FrameworkLoadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "framework_load_errors_total",
			Help: "Total number of framework files skipped because they could not be read or parsed",
		},
	)
)

// Generation outcomes used as the ReviewsGenerated label.
const (
	OutcomeSuccess  = "success"
	OutcomeDisabled = "disabled"
	OutcomeFailed   = "failed"
)
