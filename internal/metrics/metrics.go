// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	GenerationAI                 = "ai"
	GenerationRetryWithoutSource = "retry_without_source"
	GenerationFallbackParse      = "fallback_parse"
	GenerationFallbackError      = "fallback_error"
)

var (
	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizforge_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Generation counts question generation outcomes.
	Generation = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizforge_generation_total",
			Help: "Question generation requests by outcome",
		},
		[]string{"outcome"},
	)

	// ResultsSubmitted counts persisted quiz results.
	ResultsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizforge_results_submitted_total",
			Help: "Total number of quiz results submitted",
		},
	)

	// ArtifactCleanup counts upload artifact removals by outcome (inline, deferred, failed, worker).
	ArtifactCleanup = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizforge_artifact_cleanup_total",
			Help: "Upload artifact cleanup attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
