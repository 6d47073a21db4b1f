package cache_test

import (
	"context"
	"fmt"
	"time"

	cache "github.com/krisalay/query-cache"
)

func ExampleUseCachedQuery() {
	c := cache.MustNew(cache.WithSweepInterval(0))
	defer c.Close()

	ctx := context.Background()
	calls := 0
	opts := cache.QueryOptions[[]string]{
		Key: "properties:owner:42",
		Producer: func(context.Context) ([]string, error) {
			calls++
			return []string{"Lake House", "City Flat"}, nil
		},
		TTL: 5 * time.Second,
	}

	q := cache.UseCachedQuery(ctx, c, opts)
	data, _ := q.Data()
	fmt.Println(data, q.Loading(), q.Err())

	cache.UseCachedQuery(ctx, c, opts)
	fmt.Println("producer calls:", calls)

	c.Invalidate(opts.Key)
	cache.UseCachedQuery(ctx, c, opts)
	fmt.Println("producer calls:", calls)

	// Output:
	// [Lake House City Flat] false <nil>
	// producer calls: 1
	// producer calls: 2
}
