package engine

import (
	"context"
	"time"

	"github.com/krisalay/query-cache/expiration"
	"github.com/krisalay/query-cache/refresh"
	"github.com/krisalay/query-cache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- Whether an entry is fresh enough for a given read
- Whether the sweep should drop an entry
- How background refreshes are dispatched
- Whether a finished producer call may write the store
- How producer calls are timed and recorded in metrics

It does NOT:
- Store data
- Handle sharding or locking
- Decide eviction order
*/
type CacheEngine struct {

	// Expiration decides freshness per read and retention for the sweep.
	Expiration expiration.Strategy

	// Refresh runs stale-while-revalidate producer calls off the read path.
	Refresh refresh.Dispatcher

	// Sequencer rejects out-of-order completions.
	// If nil, every completion writes (last write wins).
	Sequencer *Sequencer

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	// Now is the clock. Tests replace it.
	Now func() time.Time
}

func NewCacheEngine(
	exp expiration.Strategy,
	dispatcher refresh.Dispatcher,
	seq *Sequencer,
	metrics types.Metrics,
	now func() time.Time,
) *CacheEngine {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if now == nil {
		now = time.Now
	}

	return &CacheEngine{
		Expiration: exp,
		Refresh:    dispatcher,
		Sequencer:  seq,
		Metrics:    metrics,
		Now:        now,
	}
}

// IsFresh reports whether ent may be served to a reader using ttl.
func (e *CacheEngine) IsFresh(ent *types.CacheEntry, ttl time.Duration) bool {
	return e.Expiration.IsFresh(ent, ttl, e.Now())
}

// IsExpired reports whether the sweep should drop ent.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

// OnRead is called every time a fresh entry is served.
func (e *CacheEngine) OnRead(ent *types.CacheEntry) {
	e.Metrics.Hit()
	e.Expiration.OnAccess(ent, e.Now())
}

// Issue takes a ticket for a producer call that is about to start.
func (e *CacheEngine) Issue() uint64 {
	if e.Sequencer == nil {
		return 0
	}
	return e.Sequencer.Issue()
}

// MayWrite reports whether the completion holding seq may write key.
// Callers must hold the shard lock so the check and the write are atomic.
func (e *CacheEngine) MayWrite(key string, seq uint64) bool {
	if e.Sequencer == nil {
		return true
	}
	return e.Sequencer.Commit(key, seq)
}

// Produce calls fn and records its duration. Failures are counted as load
// failures; background refreshes count their own.
func (e *CacheEngine) Produce(ctx context.Context, fn types.Producer) (any, error) {
	start := e.Now()
	val, err := fn(ctx)
	e.Metrics.LoadDuration(e.Now().Sub(start))
	return val, err
}

// Dispatch hands a background refresh to the dispatcher.
// It reports false when there is no dispatcher or the task was dropped.
func (e *CacheEngine) Dispatch(task refresh.Task) bool {
	if e.Refresh == nil {
		return false
	}
	e.Metrics.Refresh()
	return e.Refresh.Submit(task)
}

// Close stops background work owned by the engine.
func (e *CacheEngine) Close() {
	if e.Refresh != nil {
		e.Refresh.Close()
	}
}
