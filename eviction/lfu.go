// This file implements LFU eviction.

package eviction

import "container/list"

// lfuItem is one tracked key with its read count.
type lfuItem struct {
	key  string
	freq int
}

type lfu struct {
	// nodes maps a key to its element inside the bucket for its current frequency.
	nodes map[string]*list.Element

	// buckets groups keys by frequency. Inside a bucket keys are ordered by
	// the time they reached that frequency, oldest at the front.
	buckets map[int]*list.List

	// minFreq is the smallest frequency with a non-empty bucket, or 0 when empty.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		nodes:   make(map[string]*list.Element),
		buckets: make(map[int]*list.List),
	}
}

// OnGet moves k to the next frequency bucket.
func (l *lfu) OnGet(k string) {
	el, ok := l.nodes[k]
	if !ok {
		return
	}
	it := l.detach(el)
	it.freq++
	l.attach(it)
}

// OnPut starts new keys at frequency 1. Refreshes keep the current count.
func (l *lfu) OnPut(k string) {
	if _, ok := l.nodes[k]; ok {
		return
	}
	l.attach(&lfuItem{key: k, freq: 1})
}

func (l *lfu) Evict() string {
	if len(l.nodes) == 0 {
		return ""
	}
	b := l.buckets[l.minFreq]
	it := l.detach(b.Front())
	delete(l.nodes, it.key)
	return it.key
}

func (l *lfu) Remove(k string) {
	if el, ok := l.nodes[k]; ok {
		l.detach(el)
		delete(l.nodes, k)
	}
}

func (l *lfu) Reset() {
	clear(l.nodes)
	clear(l.buckets)
	l.minFreq = 0
}

func (l *lfu) Len() int { return len(l.nodes) }

func (l *lfu) attach(it *lfuItem) {
	b, ok := l.buckets[it.freq]
	if !ok {
		b = list.New()
		l.buckets[it.freq] = b
	}
	l.nodes[it.key] = b.PushBack(it)
	if l.minFreq == 0 || it.freq < l.minFreq {
		l.minFreq = it.freq
	}
}

// detach unlinks el from its bucket and keeps minFreq accurate.
// The caller decides whether the key stays tracked.
func (l *lfu) detach(el *list.Element) *lfuItem {
	it := el.Value.(*lfuItem)
	b := l.buckets[it.freq]
	b.Remove(el)
	if b.Len() > 0 {
		return it
	}

	delete(l.buckets, it.freq)
	if it.freq == l.minFreq {
		l.minFreq = 0
		for f := range l.buckets {
			if l.minFreq == 0 || f < l.minFreq {
				l.minFreq = f
			}
		}
	}
	return it
}
