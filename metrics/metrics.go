/*
Package metrics collects the request metrics of the client runtime
with Prometheus: a counter of issued requests, a histogram of request
durations and a counter of failed requests, all partitioned by service
and operation.
*/
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const promNamespace = "aws"

// Metrics holds the Prometheus collectors. A nil *Metrics is a valid
// no-op receiver, for clients that run without metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates and registers the collectors on registerer. When
// registerer is nil the default registerer is used.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "requests_total",
		Help:      "Total number of AWS requests issued.",
	}, []string{"service", "operation"})

	errorsVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "request_errors_total",
		Help:      "Total number of AWS requests that ultimately failed.",
	}, []string{"service", "operation"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of AWS requests including retries.",
	}, []string{"service", "operation"})

	return &Metrics{
		requests: registerCounterVec(registerer, requests),
		errors:   registerCounterVec(registerer, errorsVec),
		duration: registerHistogramVec(registerer, duration),
	}
}

// registerCounterVec and registerHistogramVec reuse an already
// registered collector, so several clients can share one registerer.
func registerCounterVec(r prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerHistogramVec(r prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := r.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		panic(err)
	}
	return h
}

// MeasureRequest counts one request and observes its duration.
func (m *Metrics) MeasureRequest(service, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, operation).Inc()
	m.duration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

// IncRequestError counts one failed request.
func (m *Metrics) IncRequestError(service, operation string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(service, operation).Inc()
}
