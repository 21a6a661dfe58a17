// Package metrics registers the Prometheus metrics used by the assistant.
// Import this package (via blank import if nothing else) from the server
// entry point so all metrics exist before the /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache metrics.
var (
	// CacheHits counts cache hits labelled by the tier that served them.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubelens_cache_hits_total",
			Help: "Cache hits by serving tier.",
		},
		[]string{"tier"},
	)

	// CacheMisses counts lookups that missed every tier.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tubelens_cache_misses_total",
			Help: "Cache lookups that missed all tiers.",
		},
	)

	// CacheTierErrors counts tier operations that failed and were degraded
	// to a miss, labelled by tier and operation.
	CacheTierErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubelens_cache_tier_errors_total",
			Help: "Cache tier operations that failed fail-open.",
		},
		[]string{"tier", "op"},
	)
)

// Session metrics.
var (
	// SessionsActive tracks the number of live conversation sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tubelens_sessions_active",
			Help: "Currently active conversation sessions.",
		},
	)

	// SessionsExpired counts sessions removed by the idle sweep.
	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tubelens_sessions_expired_total",
			Help: "Sessions removed by idle-timeout cleanup.",
		},
	)
)

// Analysis metrics.
var (
	// AnalyzeRequests counts completed analysis requests labelled by
	// operation ("seo", "keywords", "gap") and outcome ("success", "error").
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubelens_analyze_requests_total",
			Help: "Total analysis requests processed.",
		},
		[]string{"op", "status"},
	)

	// AnalyzeDuration observes end-to-end analysis latency in seconds.
	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubelens_analyze_duration_seconds",
			Help:    "End-to-end analysis duration in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)
)
