package cache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/query-cache/api"
	"github.com/krisalay/query-cache/engine"
	"github.com/krisalay/query-cache/expiration"
	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/logging"
	"github.com/krisalay/query-cache/refresh"
	"github.com/krisalay/query-cache/shard"
	"github.com/krisalay/query-cache/sweep"
	"github.com/krisalay/query-cache/types"
)

/*
QueryCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards (storage)
- the engine (freshness, retention, refresh, write ordering, metrics)
- the sweeper
- in-flight de-duplication
*/
type QueryCache struct {
	// shards are the actual storage units. Each shard is an independent mini-store.
	shards []*shard.Shard

	// selector decides which shard a key belongs to.
	selector shard.Selector

	// engine contains the "rules" of the cache.
	engine *engine.CacheEngine

	// sweeper reclaims entries past the retention horizon.
	sweeper *sweep.Sweeper

	// sf lets concurrent cold reads of one key share a producer call.
	// Clear swaps in a fresh group so nobody joins a call started before the clear.
	sf     atomic.Pointer[singleflight.Group]
	dedupe bool

	defaultTTL time.Duration
	logCtx     context.Context

	closed    atomic.Bool
	closeOnce sync.Once
}

var _ api.Cache = (*QueryCache)(nil)

// New builds a cache and starts its sweeper. Call Close to stop background work.
func New(opts ...Option) (*QueryCache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logCtx := logging.WithAttrs(
		logging.WithLogger(context.Background(), o.logger),
		slog.String("component", "cache"),
	)

	// Total capacity is divided across shards, rounding up so no shard gets zero.
	perShard := 0
	if o.capacity > 0 {
		perShard = (o.capacity + o.shards - 1) / o.shards
	}

	shards := make([]*shard.Shard, o.shards)
	for i := range shards {
		sh, err := shard.NewShard(shard.Config{
			Backend:  o.backend,
			Capacity: perShard,
			Eviction: o.eviction,
		})
		if err != nil {
			return nil, errs.Wrap(err, "build shard")
		}
		shards[i] = sh
	}

	var exp expiration.Strategy = &expiration.MaxAge{Retention: o.retention}
	if o.idleRetention {
		exp = &expiration.IdleRetention{Retention: o.retention}
	}

	var seq *engine.Sequencer
	if o.orderedWrites {
		seq = engine.NewSequencer()
	}

	c := &QueryCache{
		shards:   shards,
		selector: shard.HashSelector{},
		engine: engine.NewCacheEngine(
			exp,
			refresh.NewQueue(logCtx, o.refreshWorkers, o.refreshQueue),
			seq,
			o.metrics,
			o.now,
		),
		dedupe:     o.dedupe,
		defaultTTL: o.defaultTTL,
		logCtx:     logCtx,
	}
	c.sf.Store(&singleflight.Group{})

	c.sweeper = sweep.New(logCtx, c, o.sweepInterval, o.now)
	c.sweeper.Start()

	return c, nil
}

// MustNew is New that panics on invalid options.
func MustNew(opts ...Option) *QueryCache {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultTTL returns the freshness window used when a read passes none.
func (c *QueryCache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

func (c *QueryCache) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.defaultTTL
}

/*
lookup returns the entry for key if it is fresh for ttl.
A hit updates access bookkeeping; anything else counts as a miss.
*/
func (c *QueryCache) lookup(key string, ttl time.Duration) (*types.CacheEntry, bool) {
	sh := c.selector.Select(key, c.shards)

	ent, ok := sh.Store.Get(key)
	if !ok || !c.engine.IsFresh(ent, ttl) {
		c.engine.Metrics.Miss()
		return nil, false
	}

	c.engine.OnRead(ent)
	if sh.Eviction != nil {
		sh.Mu.Lock()
		sh.Eviction.OnGet(key)
		sh.Mu.Unlock()
	}
	return ent, true
}

/*
load invokes the producer for key and writes its result.

shared joins concurrent calls for the same key into one producer call
when de-duplication is enabled. The shared call runs with the context of the
caller that started it.
*/
func (c *QueryCache) load(ctx context.Context, key string, fn types.Producer, shared bool) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	run := func() (any, error) {
		seq := c.engine.Issue()
		val, err := c.engine.Produce(ctx, fn)
		if err != nil {
			c.engine.Metrics.LoadFailure()
			return nil, err
		}
		c.write(key, val, seq)
		return val, nil
	}

	if shared && c.dedupe {
		val, err, _ := c.sf.Load().Do(key, run)
		return val, err
	}
	return run()
}

/*
refreshInBackground dispatches a stale-while-revalidate producer call.

The ticket is taken now, at issue time, so a refresh cannot overwrite a
result from a call issued after it. onSuccess runs only when the result was
actually written. Failures are counted and logged by the queue, never returned.
*/
func (c *QueryCache) refreshInBackground(key string, fn types.Producer, onSuccess func(any)) bool {
	seq := c.engine.Issue()

	return c.engine.Dispatch(refresh.Task{
		Key: key,
		Run: func(ctx context.Context) error {
			val, err := c.engine.Produce(ctx, fn)
			if err != nil {
				c.engine.Metrics.RefreshFailure()
				return errs.Wrapf(errs.WithStack(err), "refresh key %q", key)
			}
			if c.write(key, val, seq) && onSuccess != nil {
				onSuccess(val)
			}
			return nil
		},
	})
}

/*
write stores val for key, stamped with the current time.

It returns false when the sequencer refused the write because a newer result
(or an invalidation) already landed. The check and the write happen under the
shard lock so no other write can slip in between.
*/
func (c *QueryCache) write(key string, val any, seq uint64) bool {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	if !c.engine.MayWrite(key, seq) {
		sh.Mu.Unlock()
		logging.Debug(c.logCtx, "discarded out-of-order result", slog.String("key", key), slog.Uint64("seq", seq))
		return false
	}

	if sh.Eviction != nil {
		if _, exists := sh.Store.Get(key); !exists && sh.Full() {
			if victim := sh.Eviction.Evict(); victim != "" {
				sh.Store.Delete(victim)
				c.engine.Metrics.Eviction()
			}
		}
	}

	sh.Store.Put(key, types.NewCacheEntry(key, val, c.engine.Now(), seq))
	if sh.Eviction != nil {
		sh.Eviction.OnPut(key)
	}
	sh.Mu.Unlock()

	c.engine.Metrics.Size(c.Len())
	return true
}

// GetOrLoad returns the value for key if it is fresh for ttl, otherwise calls fn,
// stores its result and returns it. A ttl of zero uses the default.
func (c *QueryCache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, fn types.Producer) (any, error) {
	if fn == nil {
		return nil, ErrNilProducer
	}
	if ent, ok := c.lookup(key, c.ttlOrDefault(ttl)); ok {
		return ent.Value, nil
	}
	return c.load(ctx, key, fn, true)
}

// Get returns the stored value and its timestamp regardless of freshness.
// It has no side effects.
func (c *QueryCache) Get(key string) (any, time.Time, bool) {
	ent, ok := c.selector.Select(key, c.shards).Store.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	return ent.Value, ent.StoredAt, true
}

// Set stores value for key stamped with the current time, overwriting any entry.
func (c *QueryCache) Set(key string, value any) {
	c.write(key, value, c.engine.Issue())
}

/*
Invalidate removes key so the next read is a guaranteed miss.

Write paths call this after creating, updating or deleting the underlying
resource. Producer calls already in flight for key are fenced off and cannot
write their (possibly outdated) result, and later readers will not join them.
*/
func (c *QueryCache) Invalidate(key string) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	if c.engine.Sequencer != nil {
		c.engine.Sequencer.Fence(key)
	}
	sh.Store.Delete(key)
	if sh.Eviction != nil {
		sh.Eviction.Remove(key)
	}
	sh.Mu.Unlock()

	c.sf.Load().Forget(key)
	c.engine.Metrics.Size(c.Len())
}

// Clear removes every entry. Call it on session boundaries so no per-user data
// leaks into the next session.
func (c *QueryCache) Clear() {
	if c.engine.Sequencer != nil {
		c.engine.Sequencer.FenceAll()
	}
	c.sf.Store(&singleflight.Group{})

	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Clear()
		if sh.Eviction != nil {
			sh.Eviction.Reset()
		}
		sh.Mu.Unlock()
	}

	c.engine.Metrics.Size(0)
	logging.Debug(c.logCtx, "cache cleared")
}

// Len returns the number of stored entries, fresh or stale.
func (c *QueryCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		n += int(sh.Store.Size())
	}
	return n
}

// Stats returns a diagnostic snapshot: the number of entries and their keys, sorted.
func (c *QueryCache) Stats() types.Stats {
	keys := make([]string, 0, c.Len())
	for _, sh := range c.shards {
		sh.Store.Range(func(key string, _ *types.CacheEntry) bool {
			keys = append(keys, key)
			return true
		})
	}
	slices.Sort(keys)

	return types.Stats{Size: len(keys), Keys: keys}
}

/*
Sweep removes every entry past the retention horizon as of now and returns
how many were removed. The sweeper calls it on its interval; it is exported
so callers can force a pass.
*/
func (c *QueryCache) Sweep(now time.Time) int {
	removed := 0

	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Range(func(key string, ent *types.CacheEntry) bool {
			if !c.engine.IsExpired(ent, now) {
				return true
			}
			sh.Store.Delete(key)
			if sh.Eviction != nil {
				sh.Eviction.Remove(key)
			}
			if c.engine.Sequencer != nil {
				c.engine.Sequencer.Forget(key)
			}
			c.engine.Metrics.Expire()
			removed++
			return true
		})
		sh.Mu.Unlock()
	}

	if removed > 0 {
		c.engine.Metrics.Size(c.Len())
	}
	return removed
}

/*
Close stops the sweeper and the refresh workers, waiting for queued
refreshes to finish. Fresh entries can still be read afterwards, but any
read that needs the producer fails with ErrClosed.
*/
func (c *QueryCache) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.sweeper.Stop()
		c.engine.Close()
		logging.Debug(c.logCtx, "cache closed")
	})
}
