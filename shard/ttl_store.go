package shard

import (
	"github.com/jellydator/ttlcache/v3"

	"github.com/krisalay/query-cache/types"
)

/*
ttlStore backs a shard with github.com/jellydator/ttlcache.

Items never expire inside ttlcache. Retention is decided by the cache's sweep,
which also drops the key from the shard's eviction policy and write
sequencer. An item that vanished on its own would leave both of them
pointing at a key the store no longer holds.

Freshness is still decided by the cache from CacheEntry.StoredAt.
*/
type ttlStore struct {
	c *ttlcache.Cache[string, *types.CacheEntry]
}

// NewTTLStore creates a ttlcache-backed store.
func NewTTLStore() *ttlStore {
	return &ttlStore{c: ttlcache.New[string, *types.CacheEntry](
		ttlcache.WithDisableTouchOnHit[string, *types.CacheEntry](),
	)}
}

func (s *ttlStore) Get(key string) (*types.CacheEntry, bool) {
	item := s.c.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *ttlStore) Put(key string, ent *types.CacheEntry) {
	s.c.Set(key, ent, ttlcache.NoTTL)
}

func (s *ttlStore) Delete(key string) {
	s.c.Delete(key)
}

func (s *ttlStore) Clear() {
	s.c.DeleteAll()
}

func (s *ttlStore) Size() int64 {
	return int64(s.c.Len())
}

// Range walks a snapshot of the keys, so fn may delete.
func (s *ttlStore) Range(fn func(string, *types.CacheEntry) bool) {
	for _, key := range s.c.Keys() {
		ent, ok := s.Get(key)
		if !ok {
			continue
		}
		if !fn(key, ent) {
			return
		}
	}
}
