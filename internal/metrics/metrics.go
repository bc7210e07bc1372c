// Package metrics exposes Prometheus instrumentation for the HTTP API, the signup flow,
// outbound mail and the search index.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yamdb_http_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// Auth flow
	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_signups_total",
			Help: "Signup requests by outcome",
		},
		[]string{"outcome"}, // "created", "resent", "rejected"
	)

	TokenExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_token_exchanges_total",
			Help: "Confirmation code exchanges by outcome",
		},
		[]string{"outcome"}, // "issued", "unknown_user", "invalid_code"
	)

	// Mail
	MailSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_mail_sent_total",
			Help: "Outbound messages by backend and result",
		},
		[]string{"backend", "result"},
	)

	MailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yamdb_mail_send_duration_seconds",
			Help:    "Time spent delivering a message to the relay",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "yamdb_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Search
	SearchIndexedDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yamdb_search_indexed_documents",
			Help: "Number of titles in the search index",
		},
	)

	SearchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yamdb_search_queries_total",
			Help: "Title search queries served",
		},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMailSend records a delivery attempt.
func RecordMailSend(backend string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MailSentTotal.WithLabelValues(backend, result).Inc()
	MailSendDuration.Observe(duration.Seconds())
}

// Middleware instruments every request. Routes are labelled with the chi route
// pattern so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		APIActiveRequests.Inc()
		defer APIActiveRequests.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordAPIRequest(r.Method, route, status, time.Since(start))
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
