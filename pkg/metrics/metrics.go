package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Store metrics
	StoreOperations        *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Aggregation metrics
	RollupsComputed *prometheus.CounterVec
	RollupDuration  *prometheus.HistogramVec
	RollupCache     *prometheus.CounterVec
	ValuesDefaulted *prometheus.CounterVec

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Business metrics
	EntityMutations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewIsolated registers on a private registry, so it can be called any number of times.
func NewIsolated() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		StoreOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"backend", "collection", "operation", "status"},
		),

		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_operation_duration_seconds",
				Help:    "Document store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),

		RollupsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollups_computed_total",
				Help: "Total number of aggregation rollups computed",
			},
			[]string{"rollup"},
		),

		RollupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollup_duration_seconds",
				Help:    "Dashboard build duration in seconds, snapshot load included",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"rollup"},
		),

		RollupCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollup_cache_requests_total",
				Help: "Rollup cache lookups by result",
			},
			[]string{"result"},
		),

		ValuesDefaulted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numeric_values_defaulted_total",
				Help: "Numeric inputs that failed to parse and were replaced by zero",
			},
			[]string{"source"},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		EntityMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entity_mutations_total",
				Help: "Total number of entity mutations by entity and action",
			},
			[]string{"entity", "action"},
		),

		gatherer: gatherer,
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Document store operation metrics
func (m *Metrics) RecordStoreOperation(backend, collection, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperations.WithLabelValues(backend, collection, operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// Rollup computation
func (m *Metrics) RecordRollup(rollup string) {
	m.RollupsComputed.WithLabelValues(rollup).Inc()
}

// Dashboard build duration
func (m *Metrics) ObserveRollupDuration(rollup string, duration time.Duration) {
	m.RollupDuration.WithLabelValues(rollup).Observe(duration.Seconds())
}

// Cache lookup outcome: hit, miss or error
func (m *Metrics) RecordCacheLookup(result string) {
	m.RollupCache.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDefaultedValues(source string, count int) {
	if count > 0 {
		m.ValuesDefaulted.WithLabelValues(source).Add(float64(count))
	}
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

func (m *Metrics) RecordMutation(entity, action string) {
	m.EntityMutations.WithLabelValues(entity, action).Inc()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// Handler exposes the registry this Metrics was built on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
