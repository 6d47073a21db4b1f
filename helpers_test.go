package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/types"
)

//
// ================= CLOCK =================
//

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to start + d.
func (c *fakeClock) Set(start time.Time, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

//
// ================= PRODUCERS =================
//

type props struct {
	N int
}

// countingProducer returns {n: call number} on every call.
type countingProducer struct {
	calls atomic.Int32
}

func (p *countingProducer) Produce(context.Context) (props, error) {
	return props{N: int(p.calls.Add(1))}, nil
}

func (p *countingProducer) Calls() int {
	return int(p.calls.Load())
}

//
// ================= METRICS =================
//

type testMetrics struct {
	hits, misses, evictions, expires  atomic.Int32
	refreshes, refreshFails, loadFail atomic.Int32
	size                              atomic.Int32
}

var _ types.Metrics = (*testMetrics)(nil)

func (m *testMetrics) Hit()                       { m.hits.Add(1) }
func (m *testMetrics) Miss()                      { m.misses.Add(1) }
func (m *testMetrics) Eviction()                  { m.evictions.Add(1) }
func (m *testMetrics) Expire()                    { m.expires.Add(1) }
func (m *testMetrics) Refresh()                   { m.refreshes.Add(1) }
func (m *testMetrics) RefreshFailure()            { m.refreshFails.Add(1) }
func (m *testMetrics) LoadFailure()               { m.loadFail.Add(1) }
func (m *testMetrics) LoadDuration(time.Duration) {}
func (m *testMetrics) Size(n int)                 { m.size.Store(int32(n)) }

//
// ================= HELPER: CREATE CACHE =================
//

// newTestCache builds a cache on a fake clock with the periodic sweep disabled.
func newTestCache(t *testing.T, clock *fakeClock, opts ...cache.Option) *cache.QueryCache {
	t.Helper()

	base := []cache.Option{
		cache.WithClock(clock.Now),
		cache.WithSweepInterval(0),
	}
	c, err := cache.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}
