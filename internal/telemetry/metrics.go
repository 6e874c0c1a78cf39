package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankauth_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bankauth_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_registrations_total",
			Help: "Registration attempts by outcome error code (empty on success)",
		},
		[]string{"outcome"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_registration_compensations_total",
			Help: "Compensating identity deletions by result",
		},
		[]string{"result"},
	)

	tokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_token_validations_total",
			Help: "Local token validations by result",
		},
		[]string{"result"},
	)

	jwksRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_jwks_refreshes_total",
			Help: "Signing key set fetches by result",
		},
		[]string{"result"},
	)

	tokenExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_token_exchanges_total",
			Help: "Token endpoint exchanges by grant and result",
		},
		[]string{"grant", "result"},
	)
)

// HTTPMetrics records request counts and latency labelled by the chi route pattern.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpActiveRequests.Inc()
		defer httpActiveRequests.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func RecordRegistration(outcome string) {
	if outcome == "" {
		outcome = "success"
	}
	registrationsTotal.WithLabelValues(outcome).Inc()
}

func RecordCompensation(err error) {
	compensationsTotal.WithLabelValues(result(err)).Inc()
}

func RecordTokenValidation(valid bool) {
	if valid {
		tokenValidationsTotal.WithLabelValues("valid").Inc()
		return
	}
	tokenValidationsTotal.WithLabelValues("invalid").Inc()
}

func RecordJWKSRefresh(err error) {
	jwksRefreshesTotal.WithLabelValues(result(err)).Inc()
}

func RecordTokenExchange(grant string, err error) {
	tokenExchangesTotal.WithLabelValues(grant, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
