package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/eviction"
)

// ================= METRICS =================

type Metrics struct {
	hits, misses, evictions, expired atomic.Int64
	refreshes, refreshFailures      atomic.Int64
	loadFailures                    atomic.Int64
	loadNanos                       atomic.Int64
}

func (m *Metrics) Hit()                         { m.hits.Add(1) }
func (m *Metrics) Miss()                        { m.misses.Add(1) }
func (m *Metrics) Eviction()                    { m.evictions.Add(1) }
func (m *Metrics) Expire()                      { m.expired.Add(1) }
func (m *Metrics) Refresh()                     { m.refreshes.Add(1) }
func (m *Metrics) RefreshFailure()              { m.refreshFailures.Add(1) }
func (m *Metrics) LoadFailure()                 { m.loadFailures.Add(1) }
func (m *Metrics) LoadDuration(d time.Duration) { m.loadNanos.Add(int64(d)) }
func (m *Metrics) Size(int)                     {}

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	// ---------------- Cache Config ----------------
	const (
		shards      = 8
		capacity    = 200000
		preloadKeys = 100000
		keySpace    = 120000
		goroutines  = 200
		opsPerG     = 5000
		refreshEach = 100 // every Nth read revalidates in the background
	)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Key Space    :", keySpace)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	metrics := &Metrics{}
	c := cache.MustNew(
		cache.WithShards(shards),
		cache.WithCapacity(capacity, eviction.LRU),
		cache.WithDefaultTTL(time.Minute),
		cache.WithMetrics(metrics),
	)
	defer c.Close()

	// Simulated query: a map lookup standing in for a database read.
	produce := func(i int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return i * 2, nil }
	}

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i*2)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		id := i
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				k := (id*opsPerG + j) % keySpace
				q := cache.UseCachedQuery(ctx, c, cache.QueryOptions[int]{
					Key:                 fmt.Sprintf("key-%d", k),
					Producer:            produce(k),
					RefetchInBackground: j%refreshEach == 0,
				})
				if err := q.Err(); err != nil {
					return err
				}
				if v, _ := q.Data(); v != k*2 {
					return fmt.Errorf("key-%d: got %d, want %d", k, v, k*2)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Println("BENCHMARK FAILED:", err)
		return
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hits / Misses    : %d / %d\n", metrics.hits.Load(), metrics.misses.Load())
	fmt.Printf("Refreshes        : %d\n", metrics.refreshes.Load())
	fmt.Printf("Evictions        : %d\n", metrics.evictions.Load())
	fmt.Printf("Entries          : %d\n", c.Len())
	fmt.Println("=========================================")
}
