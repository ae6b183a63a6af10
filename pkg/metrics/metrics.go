// Package metrics exposes Prometheus instruments for endpoint dispatch.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records dispatch outcomes. A nil *Collector is valid and records nothing.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	failuresTotal    *prometheus.CounterVec
	registeredTotal  prometheus.Gauge
}

// NewCollector registers the dispatch instruments on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	return &Collector{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_requests_total",
				Help: "Total number of endpoint invocations that reached the transport",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_request_duration_seconds",
				Help:    "Duration of endpoint invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dispatch_requests_in_flight",
				Help: "Number of endpoint invocations currently in flight",
			},
			[]string{"endpoint"},
		),
		failuresTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_failures_total",
				Help: "Total number of failed invocations by failure kind",
			},
			[]string{"endpoint", "kind"},
		),
		registeredTotal: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_registered_endpoints",
				Help: "Number of endpoints currently registered",
			},
		),
	}
}

// RequestStarted marks an invocation as in flight.
func (c *Collector) RequestStarted(endpoint string) {
	if c == nil {
		return
	}
	c.requestsInFlight.WithLabelValues(endpoint).Inc()
}

// RequestFinished records an invocation that got a response (statusCode > 0)
// or a transport failure (statusCode == 0).
func (c *Collector) RequestFinished(endpoint, method string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsInFlight.WithLabelValues(endpoint).Dec()
	c.requestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Failure counts a failed invocation by kind.
func (c *Collector) Failure(endpoint, kind string) {
	if c == nil {
		return
	}
	c.failuresTotal.WithLabelValues(endpoint, kind).Inc()
}

// SetRegistered reports the registry size.
func (c *Collector) SetRegistered(n int) {
	if c == nil {
		return
	}
	c.registeredTotal.Set(float64(n))
}
