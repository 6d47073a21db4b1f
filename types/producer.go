package types

import "context"

/*
Producer is the contract between the cache and the outside world.

It is the caller-supplied function that computes the authoritative value for
a key on a miss, a stale read, a refetch or a background refresh.

Producers must be:
  - read-only and idempotent
  - safe to call more than once concurrently

Their errors are opaque to the cache and are handed back to the caller verbatim.
*/
type Producer func(ctx context.Context) (any, error)

// Stats is a diagnostic snapshot of cache occupancy.
// It is informational only and is not guaranteed to be consistent under
// concurrent mutation.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
