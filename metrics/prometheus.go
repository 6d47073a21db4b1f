// Package metrics exports cache activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/query-cache/types"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "querycache"

// Prometheus holds all Prometheus metrics for the cache.
type Prometheus struct {
	// Read path
	Hits   prometheus.Counter
	Misses prometheus.Counter

	// Producer calls
	LoadFailures prometheus.Counter
	LoadLatency  prometheus.Histogram

	// Background refresh
	Refreshes       prometheus.Counter
	RefreshFailures prometheus.Counter

	// Occupancy
	Evictions prometheus.Counter
	Expired   prometheus.Counter
	Entries   prometheus.Gauge
}

var _ types.Metrics = (*Prometheus)(nil)

// New registers the cache metrics with reg under namespace.
// It panics if they are already registered, like promauto does.
func New(reg prometheus.Registerer, namespace string) *Prometheus {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	return &Prometheus{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of reads served from a fresh entry",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Total number of reads that found no entry or a stale one",
		}),
		LoadFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Total number of failed foreground producer calls",
		}),
		LoadLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Producer call latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		Refreshes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Total number of background refreshes dispatched",
		}),
		RefreshFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_failures_total",
			Help:      "Total number of failed background refreshes",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of entries evicted for capacity",
		}),
		Expired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_total",
			Help:      "Total number of entries removed by the retention sweep",
		}),
		Entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Current number of stored entries",
		}),
	}
}

func (p *Prometheus) Hit()            { p.Hits.Inc() }
func (p *Prometheus) Miss()           { p.Misses.Inc() }
func (p *Prometheus) Eviction()       { p.Evictions.Inc() }
func (p *Prometheus) Expire()         { p.Expired.Inc() }
func (p *Prometheus) Refresh()        { p.Refreshes.Inc() }
func (p *Prometheus) RefreshFailure() { p.RefreshFailures.Inc() }
func (p *Prometheus) LoadFailure()    { p.LoadFailures.Inc() }

func (p *Prometheus) LoadDuration(d time.Duration) {
	p.LoadLatency.Observe(d.Seconds())
}

func (p *Prometheus) Size(n int) {
	p.Entries.Set(float64(n))
}
