package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retail-metrics/internal/models"
)

const metricsNamespace = "retail_metrics"

// Drop reasons recorded by ObserveDataset.
const (
	DropMissingCustomer = "missing_customer"
	DropCancelled       = "cancelled"
	DropNonPositive     = "non_positive"
)

// Metrics owns a private registry so that tests can create as many
// instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead     prometheus.Counter
	rowsKept     prometheus.Counter
	rowsDropped  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "load",
			Name:      "rows_read_total",
			Help:      "Raw transaction rows read from the input file.",
		}),
		rowsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "load",
			Name:      "rows_kept_total",
			Help:      "Rows that survived cleaning.",
		}),
		rowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "load",
			Name:      "rows_dropped_total",
			Help:      "Rows removed during cleaning, by reason.",
		}, []string{"reason"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Duration of each pipeline step.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "step_failures_total",
			Help:      "Pipeline steps that returned an error.",
		}, []string{"step"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by the dashboard.",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		m.rowsRead,
		m.rowsKept,
		m.rowsDropped,
		m.stepDuration,
		m.stepFailures,
		m.httpRequests,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDataset(ds *models.Dataset) {
	m.rowsRead.Add(float64(ds.RawRows))
	m.rowsKept.Add(float64(ds.Len()))
	m.rowsDropped.WithLabelValues(DropMissingCustomer).Add(float64(ds.DroppedMissingCustomer))
	m.rowsDropped.WithLabelValues(DropCancelled).Add(float64(ds.DroppedCancelled))
	m.rowsDropped.WithLabelValues(DropNonPositive).Add(float64(ds.DroppedNonPositive))
}

func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		m.stepFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) ObserveRequest(method string, status int) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
