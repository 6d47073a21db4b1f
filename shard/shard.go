package shard

import (
	"fmt"
	"sync"

	"github.com/krisalay/query-cache/eviction"
)

/*
A shard is a small, independent piece of the cache.

Each shard:
- Holds some portion of the keys
- Has its own (optional) eviction policy and capacity
- Has its own lock for writes

Reads never take the lock.
*/
type Shard struct {

	// Store holds the key → entry data for this shard.
	Store ShardStore

	// Eviction is nil for unbounded shards.
	Eviction eviction.Policy

	// Capacity is the maximum number of entries; zero means unbounded.
	Capacity int

	// Mu serializes writes to Store and every call into Eviction.
	Mu sync.Mutex
}

// Backend names a ShardStore implementation.
type Backend string

const (
	// BackendCOW is the copy-on-write map store.
	BackendCOW Backend = "cow"

	// BackendTTLCache is the github.com/jellydator/ttlcache store.
	BackendTTLCache Backend = "ttlcache"
)

// Config describes how to build every shard of a cache.
type Config struct {
	Backend  Backend
	Capacity int // per shard
	Eviction eviction.PolicyType
}

func NewShard(cfg Config) (*Shard, error) {
	s := &Shard{Capacity: cfg.Capacity}

	switch cfg.Backend {
	case "", BackendCOW:
		s.Store = NewCOWStore()
	case BackendTTLCache:
		s.Store = NewTTLStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.Capacity > 0 {
		if !cfg.Eviction.Valid() {
			return nil, fmt.Errorf("unknown eviction policy %q", cfg.Eviction)
		}
		s.Eviction = eviction.NewEvictionPolicy(cfg.Eviction)
	}

	return s, nil
}

// Full reports whether putting a new key requires an eviction first.
// Callers must hold Mu.
func (s *Shard) Full() bool {
	return s.Capacity > 0 && s.Store.Size() >= int64(s.Capacity)
}
