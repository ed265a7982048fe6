// Package metrics exposes Prometheus instruments for the cache and the
// federation client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeStale = "stale"
	OutcomeMiss  = "miss"
)

// Metrics holds the cragcache instruments. A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	lookups      *prometheus.CounterVec
	writes       *prometheus.CounterVec
	clears       *prometheus.CounterVec
	assetMemory  *prometheus.CounterVec
	remoteFetch  *prometheus.HistogramVec
	remoteErrors *prometheus.CounterVec
}

// New registers the instruments on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cragcache_cache_lookups_total",
			Help: "Cache reads by category and outcome.",
		}, []string{"category", "outcome"}),
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cragcache_cache_writes_total",
			Help: "Cache writes by category.",
		}, []string{"category"}),
		clears: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cragcache_cache_clears_total",
			Help: "Cache clears by scope.",
		}, []string{"scope"}),
		assetMemory: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cragcache_asset_memory_lookups_total",
			Help: "In-memory asset tier lookups by outcome.",
		}, []string{"outcome"}),
		remoteFetch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cragcache_remote_fetch_seconds",
			Help:    "Latency of calls to federation backends.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		remoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cragcache_remote_errors_total",
			Help: "Failed calls to federation backends.",
		}, []string{"backend"}),
	}
}

// Registry returns the registry to expose over HTTP.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) CacheLookup(category, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) CacheWrite(category string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(category).Inc()
}

func (m *Metrics) CacheClear(scope string) {
	if m == nil {
		return
	}
	m.clears.WithLabelValues(scope).Inc()
}

func (m *Metrics) AssetMemoryLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := OutcomeMiss
	if hit {
		outcome = OutcomeHit
	}
	m.assetMemory.WithLabelValues(outcome).Inc()
}

// RemoteFetch records the latency of one backend call and counts failures.
func (m *Metrics) RemoteFetch(backendID string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.remoteFetch.WithLabelValues(backendID).Observe(d.Seconds())
	if err != nil {
		m.remoteErrors.WithLabelValues(backendID).Inc()
	}
}
