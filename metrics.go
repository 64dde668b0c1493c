package bearerauth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names recorded by the middleware.
const (
	// MetricRequestsTotal counts authentication outcomes per request,
	// tagged with "outcome".
	MetricRequestsTotal = "bearerauth_requests_total"

	// MetricValidationDuration observes token validation latency in
	// seconds, tagged with "outcome".
	MetricValidationDuration = "bearerauth_validation_duration_seconds"
)

// Outcome tag values for MetricRequestsTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeNoCredential = "no_credential"
	OutcomeInvalid      = "invalid"
	OutcomeOutage       = "validator_unavailable"
	OutcomeCancelled    = "cancelled"
	OutcomeConflict     = "identity_conflict"
	OutcomeSkipped      = "skipped"
)

// Metrics is a generic metrics interface for the middleware.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
}

// NoopMetrics is a default metrics implementation that does nothing.
type NoopMetrics struct{}

func (m *NoopMetrics) IncCounter(name string, tags map[string]string)                      {}
func (m *NoopMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {}

// PrometheusMetrics implements the Metrics interface using Prometheus.
// Collectors are created lazily on first use and registered with the
// configured registerer. Safe for concurrent use.
type PrometheusMetrics struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics returns a Metrics implementation backed by the default
// Prometheus registerer.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWithRegisterer returns a Metrics implementation that
// registers its collectors with the given registerer. Useful in tests to
// avoid polluting the global registry.
func NewPrometheusMetricsWithRegisterer(reg prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (m *PrometheusMetrics) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name + " counter"}, keys(tags))
		m.registerer.MustRegister(vec)
		m.counters[name] = vec
	}
	m.mu.Unlock()

	vec.With(tags).Inc()
}

func (m *PrometheusMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: name + " histogram"}, keys(tags))
		m.registerer.MustRegister(vec)
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	vec.With(tags).Observe(value)
}

func keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
