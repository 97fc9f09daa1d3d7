package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream API call rate by endpoint. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency per request. Watch for: p95 > 2s (upstream degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts by endpoint. Watch for: high retries = unstable upstream.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Forecast cache hits by freshness. Stale hits mean a refresh ran in background.
	ForecastCacheHitsTotal *prometheus.CounterVec

	// Forecast cache misses (blocking fetch shown to the user).
	ForecastCacheMissesTotal prometheus.Counter

	// Forecast fetches by trigger (blocking vs background revalidation).
	ForecastRefreshesTotal *prometheus.CounterVec

	// Failed forecast fetches. Only user-visible when no cached entry existed.
	ForecastFetchErrorsTotal prometheus.Counter

	// Saved locations gauge. Capped at 3 by the store.
	LocationsSaved prometheus.Gauge

	// Circuit breaker state per breaker (0 closed, 1 half-open, 2 open).
	BreakerState *prometheus.GaugeVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream API calls",
		},
		[]string{"endpoint", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of retry attempts for upstream API calls",
		},
		[]string{"endpoint"},
	)
	ForecastCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastCacheHitsTotal",
			Help: "Forecast cache hits by freshness (fresh or stale)",
		},
		[]string{"freshness"},
	)
	ForecastCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastCacheMissesTotal",
			Help: "Forecast cache misses requiring a blocking fetch",
		},
	)
	ForecastRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastRefreshesTotal",
			Help: "Forecast fetches by trigger (blocking or background)",
		},
		[]string{"trigger"},
	)
	ForecastFetchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastFetchErrorsTotal",
			Help: "Failed forecast fetches",
		},
	)
	LocationsSaved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "locationsSaved",
			Help: "Number of saved dashboard locations",
		},
	)
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamRetriesTotal,
		ForecastCacheHitsTotal, ForecastCacheMissesTotal,
		ForecastRefreshesTotal, ForecastFetchErrorsTotal,
		LocationsSaved, BreakerState,
		RateLimitDeniedTotal,
	)
}

// SetBreakerState records a circuit breaker transition for dashboards.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
