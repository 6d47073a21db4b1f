package types

import (
	"sync/atomic"
	"time"
)

/*
CacheEntry is one stored query result.

Value, StoredAt and Seq are written once, before the entry is published to a
store, and never mutated afterwards. A refresh replaces the whole entry.

The last-read timestamp is the only mutable field and is updated atomically,
so readers on different goroutines may touch the same entry.
*/
type CacheEntry struct {
	Key   string
	Value any

	// StoredAt marks when the producer result was written.
	// Freshness is always computed from it: now - StoredAt < ttl.
	StoredAt time.Time

	// Seq is the sequence number of the producer call that wrote the entry.
	Seq uint64

	lastRead atomic.Int64 // unix nanos
}

// NewCacheEntry builds an entry stamped at now.
func NewCacheEntry(key string, value any, now time.Time, seq uint64) *CacheEntry {
	ent := &CacheEntry{
		Key:      key,
		Value:    value,
		StoredAt: now,
		Seq:      seq,
	}
	ent.lastRead.Store(now.UnixNano())
	return ent
}

// Age returns how long ago the entry was stored.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Touch records a read.
func (e *CacheEntry) Touch(now time.Time) {
	e.lastRead.Store(now.UnixNano())
}

// LastReadAt returns the time of the most recent read, or StoredAt if the
// entry was never read.
func (e *CacheEntry) LastReadAt() time.Time {
	return time.Unix(0, e.lastRead.Load())
}
