// Package metrics exposes the proxy's request and error counters, and a
// liveness endpoint, over a dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink owns the proxy's counter vectors on their own registry, so the
// metrics surface never picks up the process-default collectors.
type Sink struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	internalErrors *prometheus.CounterVec
}

// New constructs a Sink with both counters registered.
func New() *Sink {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proxy_requests_total",
		Help: "Total requests dispatched, labeled by response code and matched resource.",
	}, []string{"code", "resource"})

	internalErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "internal_errors_total",
		Help: "Total uncaught internal errors, labeled by response code.",
	}, []string{"code"})

	registry.MustRegister(requestsTotal, internalErrors)

	return &Sink{
		registry:       registry,
		requestsTotal:  requestsTotal,
		internalErrors: internalErrors,
	}
}

// RecordRequest increments proxy_requests_total for a dispatched request.
// code is the label value written to the response — for a successfully
// proxied request this is the fixed "302" convention, not the real
// upstream status code.
func (s *Sink) RecordRequest(code, resource string) {
	s.requestsTotal.WithLabelValues(code, resource).Inc()
}

// RecordInternalError increments internal_errors_total for an uncaught
// fault in a request handler. There is no resource label: the fault may
// have occurred before a route was matched.
func (s *Sink) RecordInternalError(code string) {
	s.internalErrors.WithLabelValues(code).Inc()
}

// Handler serves /ready as a plain liveness check; every other path,
// not just /metrics, answers with the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	})
	mux.Handle("/", metricsHandler)
	return mux
}
