package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

const (
	metricGatewayRequests = "bfa_gateway_requests_total"
	metricExternalErrors  = "bfa_external_errors_total"
	metricCacheHits       = "bfa_cache_hits_total"
	metricCacheMisses     = "bfa_cache_misses_total"
	metricRecords         = "bfa_commission_records_total"
	metricDegraded        = "bfa_commission_degraded_reports_total"
	metricEvents          = "bfa_events_published_total"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	gatewayRequests *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	records         prometheus.Counter
	degraded        *prometheus.CounterVec
	events          *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricGatewayRequests,
				Help: "Total calls made to the data backend.",
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricExternalErrors,
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheHits,
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheMisses,
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		records: factory.NewCounter(
			prometheus.CounterOpts{
				Name: metricRecords,
				Help: "Commission records returned after filtering.",
			},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricDegraded,
				Help: "Commission reports built with at least one source missing.",
			},
			[]string{"source"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricEvents,
				Help: "Domain events published, by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrGatewayRequest(operation string) {
	m.gatewayRequests.WithLabelValues(operation).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// AddCommissionRecords counts records served by a commission report.
func (m *Metrics) AddCommissionRecords(n int) {
	m.records.Add(float64(n))
}

// IncrDegradedReport counts a report built without the given source.
func (m *Metrics) IncrDegradedReport(source string) {
	m.degraded.WithLabelValues(source).Inc()
}

// IncrEvent counts a publish attempt; outcome is "ok" or "error".
func (m *Metrics) IncrEvent(outcome string) {
	m.events.WithLabelValues(outcome).Inc()
}

// GetGatewaySnapshot returns a snapshot of backend and cache metrics
// suitable for the GET /v1/metrics/gateway endpoint.
func (m *Metrics) GetGatewaySnapshot() *domain.GatewayMetrics {
	totals := m.counterTotals()

	requests := totals[metricGatewayRequests]
	errs := totals[metricExternalErrors]
	hits := totals[metricCacheHits]
	misses := totals[metricCacheMisses]

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if requests > 0 {
		errorRate = errs / requests
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.GatewayMetrics{
		GatewayRequests:   int64(requests),
		GatewayErrors:     int64(errs),
		ErrorRate:         errorRate,
		CacheHits:         int64(hits),
		CacheMisses:       int64(misses),
		CacheHitRate:      cacheHitRate,
		RecordsComputed:   int64(totals[metricRecords]),
		DegradedReports:   int64(totals[metricDegraded]),
		EventsPublished:   int64(getCounterValue(m.events, "ok")),
		EventPublishFails: int64(getCounterValue(m.events, "error")),
	}
}

// counterTotals sums every counter family in the registry across labels.
func (m *Metrics) counterTotals() map[string]float64 {
	out := make(map[string]float64)
	families, err := m.Registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range mf.GetMetric() {
			out[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	return out
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
