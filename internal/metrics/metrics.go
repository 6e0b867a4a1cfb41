// Package metrics wires Prometheus collectors for the gateway: cache
// lifecycle counters satisfying cache.Metrics, plus upstream request
// accounting used by the back-office client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheMetrics implements cache.Metrics on Prometheus counters.
type CacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	stale       prometheus.Counter
	writes      prometheus.Counter
	invalidates prometheus.Counter
}

func (m *CacheMetrics) Hit()        { m.hits.Inc() }
func (m *CacheMetrics) Miss()       { m.misses.Inc() }
func (m *CacheMetrics) Stale()      { m.stale.Inc() }
func (m *CacheMetrics) Write()      { m.writes.Inc() }
func (m *CacheMetrics) Invalidate() { m.invalidates.Inc() }

// Registry bundles all gateway collectors behind one Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	cache CacheMetrics

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// Buckets for upstream request duration, in seconds.
var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// New creates a registry with the default Go and process collectors plus
// the gateway's own.
func New(namespace string) *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r := &Registry{
		registry: registry,
		cache: CacheMetrics{
			hits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Fresh cache reads",
			}),
			misses: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache reads that found no entry",
			}),
			stale: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stale_total",
				Help:      "Cache reads that found an entry past its TTL",
			}),
			writes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_writes_total",
				Help:      "Cache entry inserts and overwrites",
			}),
			invalidates: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidations_total",
				Help:      "Explicit cache deletes and clears",
			}),
		},
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests issued to the back-office API",
		}, []string{"resource", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Back-office API request latency",
			Buckets:   durationBuckets,
		}, []string{"resource"}),
	}

	registry.MustRegister(
		r.cache.hits, r.cache.misses, r.cache.stale,
		r.cache.writes, r.cache.invalidates,
		r.upstreamRequests, r.upstreamDuration,
	)
	return r
}

// Cache returns the cache.Metrics implementation.
func (r *Registry) Cache() *CacheMetrics { return &r.cache }

// ObserveUpstream records one upstream request.
func (r *Registry) ObserveUpstream(resource, status string, d time.Duration) {
	r.upstreamRequests.WithLabelValues(resource, status).Inc()
	r.upstreamDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
