// Package observability provides the Prometheus metrics of the pipeline.
//
// Every recording method is safe to call on a nil *Metrics, so components
// take metrics as an optional dependency.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "itemize"

// Metrics holds the counters for one process.
type Metrics struct {
	registry        *prometheus.Registry
	classifierCalls *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	charges         *prometheus.CounterVec
	syncResults     *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
}

// NewMetrics creates metrics registered on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		classifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_calls_total",
			Help:      "Classifier calls by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_cache_lookups_total",
			Help:      "Category cache lookups by result.",
		}, []string{"result"}),
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charges_processed_total",
			Help:      "Charges turned into records, by record status.",
		}, []string{"status"}),
		syncResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_transactions_total",
			Help:      "Ledger sync outcomes per record.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of process and sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.classifierCalls,
		m.cacheLookups,
		m.charges,
		m.syncResults,
		m.runDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose over HTTP.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ClassifierCall counts one classifier call.
func (m *Metrics) ClassifierCall(outcome string) {
	if m == nil {
		return
	}
	m.classifierCalls.WithLabelValues(outcome).Inc()
}

// CacheLookup counts one category cache lookup.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ChargeProcessed counts a record built from a charge.
func (m *Metrics) ChargeProcessed(status string) {
	if m == nil {
		return
	}
	m.charges.WithLabelValues(status).Inc()
}

// SyncResult adds n records with the given sync result.
func (m *Metrics) SyncResult(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.syncResults.WithLabelValues(result).Add(float64(n))
}

// ObserveRun records how long a run took.
func (m *Metrics) ObserveRun(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}
