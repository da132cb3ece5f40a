// Package metrics exposes server and dispatch metrics in the Prometheus format. Each Collector
// owns its registry so several servers (and tests) can run in one process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "http_privacy"

// Collector records request, backend, preprocess and forward metrics
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	preprocessRuns  *prometheus.CounterVec
	forwardStatus   *prometheus.CounterVec
}

// NewCollector creates a Collector with Go runtime and process collectors registered
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Named backend calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Named backend call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"backend"}),
		preprocessRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preprocess_runs_total",
			Help:      "Preprocessing executable runs by outcome.",
		}, []string{"outcome"}),
		forwardStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_responses_total",
			Help:      "Forward endpoint responses by status code.",
		}, []string{"code"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests,
		c.requestDuration,
		c.backendCalls,
		c.backendDuration,
		c.preprocessRuns,
		c.forwardStatus,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(route, method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveBackendCall implements dispatch.Recorder
func (c *Collector) ObserveBackendCall(backend, outcome string, duration time.Duration) {
	c.backendCalls.WithLabelValues(backend, outcome).Inc()
	c.backendDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// ObservePreprocess implements dispatch.Recorder
func (c *Collector) ObservePreprocess(outcome string, _ time.Duration) {
	c.preprocessRuns.WithLabelValues(outcome).Inc()
}

// ObserveForward implements dispatch.Recorder
func (c *Collector) ObserveForward(status int, _ time.Duration) {
	c.forwardStatus.WithLabelValues(strconv.Itoa(status)).Inc()
}
