// Package metrics owns the Prometheus registry of the service.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "talentum"

// Step results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors recorded by the fan-out and the HTTP layer.
type Metrics struct {
	registry        *prometheus.Registry
	fanoutSteps     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	logger          *zap.Logger
}

// New builds a private registry with Go and process collectors.
func New(logger *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		fanoutSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_steps_total",
			Help:      "Synchronization steps run, by event, step, store and result.",
		}, []string{"event", "step", "store", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route template and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logger: logger,
	}
	registry.MustRegister(m.fanoutSteps, m.httpRequests, m.requestDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep counts one fan-out step. A nil receiver is a no-op.
func (m *Metrics) ObserveStep(event, step, store string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.fanoutSteps.WithLabelValues(event, step, store, result).Inc()
}

// ObserveRequest counts one HTTP request. A nil receiver is a no-op.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      errorLog{m.logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLog adapts zap to promhttp.Logger.
type errorLog struct {
	logger *zap.Logger
}

func (l errorLog) Println(v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error("metrics exposition", zap.String("error", fmt.Sprint(v...)))
}
