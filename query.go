package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/krisalay/query-cache/internal/logging"
	"github.com/krisalay/query-cache/types"
)

// QueryOptions describes one cached query.
type QueryOptions[T any] struct {
	// Key identifies the query result in the cache. Callers sharing a key share the entry.
	Key string

	// Producer performs the expensive read. It must be idempotent.
	Producer func(ctx context.Context) (T, error)

	// TTL is the freshness window for this read. Zero uses the cache default.
	TTL time.Duration

	// RefetchInBackground refreshes fresh hits asynchronously (stale-while-revalidate).
	RefetchInBackground bool

	// OnChange is called after every state change, including background refresh
	// updates. Calls are serialized. It must not call Fetch or Refetch synchronously.
	OnChange func(State[T])
}

// State is what a Query currently shows to its caller.
type State[T any] struct {
	// Data is the last known value. Valid only when HasData is true.
	Data    T
	HasData bool

	// Loading is true exactly while a cold fetch or refetch is outstanding.
	// Background refreshes never set it.
	Loading bool

	// Err is the failure of the last cold fetch or refetch, cleared by a later success.
	Err error
}

/*
Query is the per-caller view of one cached query.

It keeps its own data/loading/error state, separate from the shared store:
two Queries on the same key share entries but not errors.
*/
type Query[T any] struct {
	cache  *QueryCache
	opts   QueryOptions[T]
	ttl    time.Duration
	logCtx context.Context

	// notifyMu orders OnChange calls; mu guards state.
	notifyMu sync.Mutex
	mu       sync.RWMutex
	state    State[T]
}

// NewQuery builds an accessor without reading anything.
func NewQuery[T any](c *QueryCache, opts QueryOptions[T]) *Query[T] {
	return &Query[T]{
		cache:  c,
		opts:   opts,
		ttl:    c.ttlOrDefault(opts.TTL),
		logCtx: logging.WithAttrs(c.logCtx, slog.String("query_key", opts.Key)),
	}
}

// UseCachedQuery builds an accessor and performs the initial read before returning.
// A failed read is reported through the returned Query's Err.
func UseCachedQuery[T any](ctx context.Context, c *QueryCache, opts QueryOptions[T]) *Query[T] {
	q := NewQuery(c, opts)
	_ = q.Fetch(ctx)
	return q
}

/*
Fetch reads the query through the cache.

On a fresh hit the cached value is shown immediately and, if
RefetchInBackground is set, a refresh is dispatched without blocking.
On a miss or stale entry the producer is called on the calling goroutine
while Loading reports true.

The returned error is the cold-path failure, if any; it is also kept in Err.
*/
func (q *Query[T]) Fetch(ctx context.Context) error {
	if q.opts.Producer == nil {
		q.update(func(s *State[T]) { s.Err = ErrNilProducer })
		return ErrNilProducer
	}

	if ent, ok := q.cache.lookup(q.opts.Key, q.ttl); ok {
		if v, ok := as[T](ent.Value); ok {
			q.update(func(s *State[T]) {
				s.Data = v
				s.HasData = true
				s.Loading = false
			})
			if q.opts.RefetchInBackground {
				q.revalidate()
			}
			return nil
		}
		logging.Warn(q.logCtx, "cached value has unexpected type, treating as miss",
			slog.String("stored_type", fmt.Sprintf("%T", ent.Value)),
		)
	}

	return q.load(ctx, true)
}

// Refetch calls the producer unconditionally, bypassing freshness and
// de-duplication, and overwrites the cache on success.
func (q *Query[T]) Refetch(ctx context.Context) error {
	if q.opts.Producer == nil {
		q.update(func(s *State[T]) { s.Err = ErrNilProducer })
		return ErrNilProducer
	}
	return q.load(ctx, false)
}

func (q *Query[T]) load(ctx context.Context, shared bool) error {
	q.update(func(s *State[T]) {
		s.Loading = true
		s.Err = nil
	})

	val, err := q.cache.load(ctx, q.opts.Key, q.producer(), shared)
	if err == nil {
		v, ok := as[T](val)
		if ok {
			q.update(func(s *State[T]) {
				s.Data = v
				s.HasData = true
				s.Loading = false
			})
			return nil
		}
		err = fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, q.opts.Key, val)
	}

	q.update(func(s *State[T]) {
		s.Err = err
		s.Loading = false
	})
	return err
}

// revalidate dispatches a background refresh. Its failure leaves the state untouched.
func (q *Query[T]) revalidate() {
	accepted := q.cache.refreshInBackground(q.opts.Key, q.producer(), func(val any) {
		if v, ok := as[T](val); ok {
			q.update(func(s *State[T]) {
				s.Data = v
				s.HasData = true
			})
		}
	})
	if !accepted {
		logging.Debug(q.logCtx, "background refresh not dispatched")
	}
}

func (q *Query[T]) producer() types.Producer {
	return func(ctx context.Context) (any, error) {
		return q.opts.Producer(ctx)
	}
}

func (q *Query[T]) update(fn func(*State[T])) {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	fn(&q.state)
	snapshot := q.state
	q.mu.Unlock()

	if q.opts.OnChange != nil {
		q.opts.OnChange(snapshot)
	}
}

// Key returns the cache key of the query.
func (q *Query[T]) Key() string {
	return q.opts.Key
}

// State returns a snapshot of the query's state.
func (q *Query[T]) State() State[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state
}

// Data returns the last known value and whether there is one.
func (q *Query[T]) Data() (T, bool) {
	s := q.State()
	return s.Data, s.HasData
}

func (q *Query[T]) Loading() bool {
	return q.State().Loading
}

func (q *Query[T]) Err() error {
	return q.State().Err
}

// as converts a type-erased cached value back to T. A nil value converts to
// the zero T, which covers producers of pointer, slice and map types.
func as[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}
