// Package api holds the public, type-erased contract of the query cache.
package api

import (
	"context"
	"time"

	"github.com/krisalay/query-cache/types"
)

/*
Cache defines the PUBLIC API of the query cache.

It hides sharding, freshness rules, background refresh, write ordering and
the sweep behind a small set of calls. Generic, stateful access (loading and
error signaling, refetch) is layered on top by the cache package's Query type.
*/
type Cache interface {

	/*
		GetOrLoad returns the value for key.

		BEHAVIOR:
		---------
		1. If an entry exists and now - storedAt < ttl:
		   - Return the cached value, the producer is NOT called

		2. Otherwise (missing or stale):
		   - Call the producer
		   - On success store the result stamped with now and return it
		   - On failure return the error verbatim; the store is not touched

		A ttl of zero uses the cache's default.
	*/
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, producer types.Producer) (any, error)

	/*
		Get returns the stored value and the time it was stored, ignoring freshness.
		No side effects: no metrics, no access bookkeeping.
	*/
	Get(key string) (value any, storedAt time.Time, found bool)

	/*
		Set stores value for key stamped with now, overwriting any existing entry.
	*/
	Set(key string, value any)

	/*
		Invalidate removes key so the next read calls the producer.

		USE CASES:
		----------
		- After a create/update/delete of the underlying resource
		- Administrative cleanup

		Idempotent: invalidating a missing key is safe.
	*/
	Invalidate(key string)

	/*
		Clear removes every entry.
		Intended for session boundaries (sign-in / sign-out).
	*/
	Clear()

	/*
		Stats returns the number of entries and their keys.
		Diagnostic only; not part of the correctness contract.
	*/
	Stats() types.Stats

	/*
		Sweep removes entries older than the retention horizon as of now and
		reports how many it removed.
	*/
	Sweep(now time.Time) int

	/*
		Close stops background goroutines (sweeper, refresh workers).

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}
