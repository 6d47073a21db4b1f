package engine

import "sync"

/*
Sequencer guards the store against out-of-order producer completions.

Every producer call takes a ticket when it is issued. When it completes, it may
write the store only if its ticket is newer than whatever was last written (or
fenced) for the same key. A slow, early request can therefore never overwrite
the result of a fast, later one.

Invalidation fences a key: every ticket issued before the fence is refused, so a
fetch that started before the invalidation cannot put the old data back.
*/
type Sequencer struct {
	mu sync.Mutex

	// next is the last ticket handed out. Tickets are global, not per key,
	// which makes fencing everything a single assignment.
	next uint64

	// floor is the fence set by FenceAll.
	floor uint64

	// written holds, per key, the newest ticket written or fenced.
	written map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{written: make(map[string]uint64)}
}

// Issue hands out a ticket for a producer call about to start.
func (s *Sequencer) Issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}

// Commit reports whether a completion holding seq may write key, and records
// it as the newest write when it may.
func (s *Sequencer) Commit(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.floor || seq <= s.written[key] {
		return false
	}
	s.written[key] = seq
	return true
}

// Fence refuses every ticket for key issued so far.
func (s *Sequencer) Fence(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written[key] = s.next
}

// FenceAll refuses every ticket issued so far, for every key.
func (s *Sequencer) FenceAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.floor = s.next
	clear(s.written)
}

// Forget drops the bookkeeping for key. Used by the sweep, which removes
// entries far older than any plausible in-flight call.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.written, key)
}

// Tracked returns how many keys have bookkeeping.
func (s *Sequencer) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.written)
}
