package eviction

/*
This file defines how a bounded cache decides what to remove when a shard is full.

A query cache is unbounded by default: the retention sweep is the only thing
that reclaims memory. When a capacity is configured, one of these policies picks
the victim.
*/

/*
Policy is the interface that all eviction strategies must follow.

The cache does NOT care how eviction works internally. It only calls these methods,
always while holding the owning shard's write lock, so implementations need no locking.
*/
type Policy interface {

	// OnGet is called whenever a fresh entry is served for key.
	OnGet(key string)

	// OnPut is called whenever key is written, both for new keys and for refreshes.
	OnPut(key string)

	// Remove is called when key is removed for any reason other than Evict
	// (invalidation, sweep).
	Remove(key string)

	// Evict picks a victim, forgets it and returns it. It returns "" when nothing is tracked.
	Evict() string

	// Reset forgets every key. Called when the cache is cleared.
	Reset()

	// Len returns the number of tracked keys.
	Len() int
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// LRU evicts the key that has not been read or written for the longest time.
	LRU PolicyType = "LRU"

	// LFU evicts the key with the fewest reads. Ties go to the key that reached
	// that count first.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key, regardless of access.
	// Refreshing a key does not move it.
	FIFO PolicyType = "FIFO"
)

// Valid reports whether t names a known policy.
func (t PolicyType) Valid() bool {
	switch t {
	case LRU, LFU, FIFO:
		return true
	}
	return false
}

// NewEvictionPolicy creates the policy named by t.
// It panics on an unknown type; validate configuration with PolicyType.Valid first.
func NewEvictionPolicy(t PolicyType) Policy {
	switch t {
	case LRU:
		return newLRU()
	case LFU:
		return newLFU()
	case FIFO:
		return newFIFO()
	default:
		panic("unknown eviction policy " + string(t))
	}
}
