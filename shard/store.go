package shard

import (
	"sync/atomic"

	"github.com/krisalay/query-cache/types"
)

/*
This file defines how data is actually stored inside a shard.

Query caches are read-mostly: every render reads, only misses and refreshes write.
So reads must be cheap and lock-free, and writes can afford to copy.
*/

// ShardStore is the interface used by a shard to store and retrieve cache entries.
// Writes are serialized by the owning shard; reads may run concurrently with them.
type ShardStore interface {

	// Get retrieves an entry by key.
	Get(key string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(key string, ent *types.CacheEntry)

	// Delete removes an entry. Deleting a missing key is a no-op.
	Delete(key string)

	// Clear removes every entry.
	Clear()

	// Size returns how many entries are stored.
	Size() int64

	// Range calls fn for every entry until fn returns false.
	// It iterates a snapshot, so fn may mutate the store.
	Range(fn func(key string, ent *types.CacheEntry) bool)
}

/*
cowStore is a Copy-On-Write implementation of ShardStore.

- Readers always see an immutable snapshot
- Writers build a NEW map and swap it in atomically
*/
type cowStore struct {
	data atomic.Pointer[map[string]*types.CacheEntry]
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	s.publish(make(map[string]*types.CacheEntry))
	return s
}

func (s *cowStore) snapshot() map[string]*types.CacheEntry {
	return *s.data.Load()
}

func (s *cowStore) publish(m map[string]*types.CacheEntry) {
	s.data.Store(&m)
	s.size.Store(int64(len(m)))
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.snapshot()[key]
	return ent, ok
}

// Put copies the current map, adds the entry and swaps the copy in.
func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	old := s.snapshot()
	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent
	s.publish(n)
}

func (s *cowStore) Delete(key string) {
	old := s.snapshot()
	if _, ok := old[key]; !ok {
		return
	}
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}
	s.publish(n)
}

func (s *cowStore) Clear() {
	s.publish(make(map[string]*types.CacheEntry))
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}

func (s *cowStore) Range(fn func(string, *types.CacheEntry) bool) {
	for k, v := range s.snapshot() {
		if !fn(k, v) {
			return
		}
	}
}
