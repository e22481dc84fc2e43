// Package metrics provides Prometheus instrumentation for the generator and
// the servers in front of it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcomes used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeConfiguration = "configuration_error"
	OutcomeProvider      = "provider_error"
	OutcomeEmpty         = "empty_result"
)

var (
	// GenerationLatency tracks end-to-end generation latency in seconds.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspirai_generation_latency_seconds",
			Help:    "End-to-end generation latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"format", "outcome"},
	)

	// GenerationsTotal counts finished generations by outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspirai_generations_total",
			Help: "Total number of generations by format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	// ProviderResponsesTotal counts provider HTTP statuses; 0 is a transport failure.
	ProviderResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspirai_provider_responses_total",
			Help: "Provider responses by HTTP status code.",
		},
		[]string{"code"},
	)

	// TokenUsageTotal tracks tokens reported by the provider.
	TokenUsageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspirai_token_usage_total",
			Help: "Total number of tokens reported by the provider.",
		},
		[]string{"model", "direction"}, // direction: "input" or "output"
	)

	// ActiveGenerations tracks in-flight provider calls.
	ActiveGenerations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inspirai_active_generations",
			Help: "Number of generations currently waiting on the provider.",
		},
	)

	// BusyRejectionsTotal counts submissions refused because the client
	// already had a generation outstanding.
	BusyRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspirai_busy_rejections_total",
			Help: "Submissions rejected while a generation was outstanding.",
		},
		[]string{"transport"}, // "http" or "grpc"
	)

	// HTTPRequestsTotal counts HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspirai_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP handler latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspirai_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveGeneration records one finished generation.
func ObserveGeneration(format, outcome string, elapsed time.Duration) {
	GenerationsTotal.WithLabelValues(format, outcome).Inc()
	GenerationLatency.WithLabelValues(format, outcome).Observe(elapsed.Seconds())
}

// ObserveTokens records provider-reported token usage.
func ObserveTokens(model string, input, output int32) {
	TokenUsageTotal.WithLabelValues(model, "input").Add(float64(input))
	TokenUsageTotal.WithLabelValues(model, "output").Add(float64(output))
}
