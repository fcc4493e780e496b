// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the upstream integrations (eBay, Brevo, OpenAI).
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ally",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ally",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// UpstreamCalls counts outbound calls per service and operation.
	// outcome is "ok" or "error".
	UpstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ally",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Outbound calls to third-party APIs.",
		},
		[]string{"service", "operation", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ally",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Latency of outbound calls to third-party APIs.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "operation"},
	)

	TokenCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ally",
			Subsystem: "ebay",
			Name:      "app_token_lookups_total",
			Help:      "Application token cache lookups by result (hit|miss).",
		},
		[]string{"result"},
	)

	DraftsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ally",
			Subsystem: "ebay",
			Name:      "drafts_total",
			Help:      "Draft listing attempts by outcome (created|failed|compensated).",
		},
		[]string{"outcome"},
	)
)

var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration,
		RequestInFlight,
		UpstreamCalls,
		UpstreamDuration,
		TokenCacheLookups,
		DraftsPublished,
	)
}

// ObserveUpstream records one outbound call. Use with defer:
//
//	defer metrics.ObserveUpstream("ebay", "search", time.Now(), &err)
func ObserveUpstream(service, operation string, start time.Time, errp *error) {
	outcome := "ok"
	if errp != nil && *errp != nil {
		outcome = "error"
	}
	UpstreamCalls.WithLabelValues(service, operation, outcome).Inc()
	UpstreamDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records latency per chi route pattern so ids in the path do
// not explode label cardinality.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in Prometheus/OpenMetrics text format.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP
}
