package observability

import (
	"net/http"
	"strings"
	"time"

	"journals-backend/infrastructure/persistence/connection"
	apperrors "journals-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Connection metrics
	ConnectionAttempts *prometheus.CounterVec
	ConnectionDuration prometheus.Histogram
	ConnectionState    prometheus.Gauge
	GateRejections     prometheus.Counter
}

// NewCollector creates a collector registered on its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of record store operations",
			},
			[]string{"operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Record store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ConnectionAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_attempts_total",
				Help:      "Total number of record store connection attempts",
			},
			[]string{"result"},
		),
		ConnectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "connection_attempt_duration_seconds",
				Help:      "Record store connection attempt duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_state",
				Help:      "Record store connection state (0 disconnected, 1 connecting, 2 ready, 3 failed)",
			},
		),
		GateRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_rejections_total",
				Help:      "Requests answered 503 because the record store was unavailable",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.ConnectionAttempts,
		c.ConnectionDuration,
		c.ConnectionState,
		c.GateRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveStoreOperation implements decorators.OperationRecorder
func (c *Collector) ObserveStoreOperation(operation string, err error, took time.Duration) {
	c.StoreOperations.WithLabelValues(operation, outcome(err)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// AttemptFinished implements connection.Observer
func (c *Collector) AttemptFinished(err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.ConnectionAttempts.WithLabelValues(result).Inc()
	c.ConnectionDuration.Observe(took.Seconds())
}

// StateChanged implements connection.Observer
func (c *Collector) StateChanged(_, to connection.State) {
	c.ConnectionState.Set(float64(to))
}

// GateRejected counts a request refused by the connection gate
func (c *Collector) GateRejected() {
	c.GateRejections.Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if t := apperrors.TypeOf(err); t != "" {
		return strings.ToLower(string(t))
	}
	return "error"
}
