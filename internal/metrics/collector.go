// Package metrics exposes gateway telemetry in Prometheus format.
//
// Metrics:
//   - gateway_chat_requests_total{outcome}: chat calls by final outcome
//   - gateway_chat_attempts_total{outcome}: provider attempts by classified outcome
//   - gateway_chat_retries_total: backoff waits taken
//   - gateway_provider_latency_seconds{outcome}: provider call latency
//   - gateway_provider_health: last probe result (1=healthy, 0=unhealthy)
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

type Collector struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	attempts *prometheus.CounterVec
	retries  prometheus.Counter
	latency  *prometheus.HistogramVec
	health   prometheus.Gauge
}

// NewCollector registers all gateway metrics. If registry is nil a fresh one is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Total chat requests by final outcome",
			},
			[]string{"outcome"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_attempts_total",
				Help:      "Total provider attempts by classified outcome",
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_retries_total",
				Help:      "Total backoff waits before a retry",
			},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider API call latency in seconds",
				// LLM latencies, 100ms - 60s
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"outcome"},
		),
		health: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider health from the last probe (1=healthy, 0=unhealthy)",
			},
		),
	}

	registry.MustRegister(c.requests, c.attempts, c.retries, c.latency, c.health)
	return c
}

// RecordAttempt counts one provider attempt and observes its latency.
func (c *Collector) RecordAttempt(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(outcome).Inc()
	c.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (c *Collector) RecordRetry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

// RecordRequest counts a finished chat request by its final outcome.
func (c *Collector) RecordRequest(outcome string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetProviderHealth(healthy bool) {
	if c == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.health.Set(value)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
