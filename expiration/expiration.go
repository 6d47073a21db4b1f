// This file defines how cache entries age.

package expiration

import (
	"time"

	"github.com/krisalay/query-cache/types"
)

/*
Strategy is the interface that all aging rules must follow.

Two separate clocks run over every entry:
  - freshness: decided per read, against the ttl the caller passed in.
    A stale entry is still kept; the next read simply calls the producer.
  - retention: a coarse, cache-wide horizon used by the sweep to reclaim memory.

Instead of hard-coding either rule into the cache, we define a strategy so the
retention behavior can be swapped.
*/
type Strategy interface {

	// IsFresh reports whether the entry may be served for a read using ttl.
	IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool

	// IsExpired reports whether the sweep should drop the entry.
	IsExpired(ent *types.CacheEntry, now time.Time) bool

	// OnAccess is called whenever a fresh entry is served.
	OnAccess(ent *types.CacheEntry, now time.Time)
}

// isFresh is shared by every strategy: ttl is a property of the read, never of the entry.
func isFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	return ent != nil && ent.Age(now) < ttl
}

/*
MaxAge drops entries once they are older than Retention, counted from the
moment they were stored. Reads do not extend their life.
*/
type MaxAge struct {
	Retention time.Duration
}

func (m *MaxAge) IsFresh(ent *types.CacheEntry, ttl time.Duration, now time.Time) bool {
	return isFresh(ent, ttl, now)
}

func (m *MaxAge) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return m.Retention > 0 && ent.Age(now) > m.Retention
}

func (m *MaxAge) OnAccess(*types.CacheEntry, time.Time) {}
