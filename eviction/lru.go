// This file implements LRU eviction.

package eviction

import "container/list"

// lru keeps keys in a list ordered from most recently used (front)
// to least recently used (back).
type lru struct {
	order *list.List
	nodes map[string]*list.Element
}

func newLRU() *lru {
	return &lru{
		order: list.New(),
		nodes: make(map[string]*list.Element),
	}
}

// OnGet marks k as most recently used.
func (l *lru) OnGet(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
	}
}

// OnPut tracks a new key, or marks an existing one as recently used.
// A background refresh counts as a use: somebody read the key to trigger it.
func (l *lru) OnPut(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.nodes[k] = l.order.PushFront(k)
}

// Evict removes the least recently used key, always found at the back.
func (l *lru) Evict() string {
	el := l.order.Back()
	if el == nil {
		return ""
	}
	k := l.order.Remove(el).(string)
	delete(l.nodes, k)
	return k
}

func (l *lru) Remove(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.Remove(el)
		delete(l.nodes, k)
	}
}

func (l *lru) Reset() {
	l.order.Init()
	clear(l.nodes)
}

func (l *lru) Len() int { return len(l.nodes) }
