// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo struct {
	// queue keeps keys in insertion order; the front is the oldest key.
	queue *list.List

	// nodes gives O(1) removal on invalidation, which happens far more often
	// in a query cache than in a plain key/value store.
	nodes map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		queue: list.New(),
		nodes: make(map[string]*list.Element),
	}
}

// OnGet is ignored: FIFO does not care about reads.
func (f *fifo) OnGet(string) {}

// OnPut only records the first insertion of a key.
func (f *fifo) OnPut(k string) {
	if _, ok := f.nodes[k]; ok {
		return
	}
	f.nodes[k] = f.queue.PushBack(k)
}

func (f *fifo) Evict() string {
	el := f.queue.Front()
	if el == nil {
		return ""
	}
	k := f.queue.Remove(el).(string)
	delete(f.nodes, k)
	return k
}

func (f *fifo) Remove(k string) {
	if el, ok := f.nodes[k]; ok {
		f.queue.Remove(el)
		delete(f.nodes, k)
	}
}

func (f *fifo) Reset() {
	f.queue.Init()
	clear(f.nodes)
}

func (f *fifo) Len() int { return len(f.nodes) }
