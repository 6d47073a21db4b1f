package cache

import (
	"log/slog"
	"time"

	"github.com/krisalay/query-cache/eviction"
	"github.com/krisalay/query-cache/shard"
	"github.com/krisalay/query-cache/types"
)

const (
	// DefaultTTL is the freshness window used when a read does not supply one.
	DefaultTTL = 5 * time.Minute

	// DefaultRetention is the sweep horizon: entries older than this are dropped.
	DefaultRetention = 30 * time.Minute

	// DefaultSweepInterval is how often the sweep runs.
	DefaultSweepInterval = 10 * time.Minute

	DefaultShards         = 4
	DefaultRefreshWorkers = 4
	DefaultRefreshQueue   = 256
)

type options struct {
	defaultTTL     time.Duration
	retention      time.Duration
	sweepInterval  time.Duration
	idleRetention  bool
	shards         int
	capacity       int
	eviction       eviction.PolicyType
	backend        shard.Backend
	dedupe         bool
	orderedWrites  bool
	refreshWorkers int
	refreshQueue   int
	metrics        types.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

func defaultOptions() options {
	return options{
		defaultTTL:     DefaultTTL,
		retention:      DefaultRetention,
		sweepInterval:  DefaultSweepInterval,
		shards:         DefaultShards,
		eviction:       eviction.LRU,
		backend:        shard.BackendCOW,
		dedupe:         true,
		orderedWrites:  true,
		refreshWorkers: DefaultRefreshWorkers,
		refreshQueue:   DefaultRefreshQueue,
		metrics:        types.NoopMetrics{},
		now:            time.Now,
	}
}

// Option configures a QueryCache.
type Option func(*options)

// WithDefaultTTL sets the freshness window for reads that do not pass one.
// Zero or negative values are ignored.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithRetention sets the sweep horizon. Zero keeps entries until invalidated.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.retention = d
		}
	}
}

// WithSweepInterval sets how often the sweep runs. Zero disables the periodic sweep;
// QueryCache.Sweep can still be called directly.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.sweepInterval = d
		}
	}
}

// WithIdleRetention makes the sweep measure retention from the last read instead of
// from the last write, so keys that keep being read are never swept.
func WithIdleRetention(enabled bool) Option {
	return func(o *options) { o.idleRetention = enabled }
}

// WithShards sets the number of store shards.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithCapacity bounds the cache to roughly n entries, split evenly across shards,
// evicting with policy when a shard is full. Zero means unbounded.
func WithCapacity(n int, policy eviction.PolicyType) Option {
	return func(o *options) {
		if n >= 0 {
			o.capacity = n
			o.eviction = policy
		}
	}
}

// WithStoreBackend selects the shard store implementation.
func WithStoreBackend(b shard.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDeduplication controls whether concurrent cold reads of the same key share
// one producer call. Refetch is never de-duplicated.
func WithDeduplication(enabled bool) Option {
	return func(o *options) { o.dedupe = enabled }
}

// WithOrderedWrites controls whether a producer call that finishes after a newer one
// is prevented from overwriting the newer result. When disabled, the last completion wins.
func WithOrderedWrites(enabled bool) Option {
	return func(o *options) { o.orderedWrites = enabled }
}

// WithRefreshWorkers sizes the background refresh pool.
func WithRefreshWorkers(workers, queue int) Option {
	return func(o *options) {
		if workers > 0 {
			o.refreshWorkers = workers
		}
		if queue >= 0 {
			o.refreshQueue = queue
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m types.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger for background failures and sweeps.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
