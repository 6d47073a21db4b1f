package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/internal/bootstrap"
	"github.com/krisalay/query-cache/internal/properties"
)

const demoOwner = "demo"

var demoTTL time.Duration

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through miss, hit, stale, refresh, invalidation and clear",
	RunE:  withApp(runDemo),
}

func init() {
	demoCmd.Flags().DurationVar(&demoTTL, "ttl", 2*time.Second, "Freshness window used by the demo reads")
	rootCmd.AddCommand(demoCmd)
}

// ================= BACKING STORE =================

// countingRepository prints every call that reaches the database.
type countingRepository struct {
	properties.Repository
	calls atomic.Int32
}

func (r *countingRepository) List(ctx context.Context, ownerID string) ([]properties.Property, error) {
	n := r.calls.Add(1)
	fmt.Printf("DB     → list owner %s (call #%d)\n", ownerID, n)
	time.Sleep(50 * time.Millisecond)
	return r.Repository.List(ctx, ownerID)
}

func names(ps []properties.Property) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

// ================= DEMO =================

func runDemo(cmd *cobra.Command, app *bootstrap.App) error {
	ctx := cmd.Context()
	c := app.Cache

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("STORE BACKEND   :", app.Config.Cache.Backend)
	fmt.Println("SHARDS          :", app.Config.Cache.Shards)
	fmt.Println("DEMO TTL        :", demoTTL)
	fmt.Println("RETENTION       :", app.Config.Cache.Retention)
	fmt.Println("DATABASE        :", app.Config.Database.DSN)

	repo := &countingRepository{Repository: properties.NewGormRepository(app.DB)}

	// Start from a known listing.
	existing, err := repo.Repository.List(ctx, demoOwner)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if err := repo.Delete(ctx, demoOwner, p.ID); err != nil {
			return err
		}
	}
	if err := repo.Create(ctx, &properties.Property{OwnerID: demoOwner, Name: "Lake House"}); err != nil {
		return err
	}

	svc := properties.NewService(repo, c)
	opts := cache.QueryOptions[[]properties.Property]{
		Key: properties.OwnerKey(demoOwner),
		Producer: func(ctx context.Context) ([]properties.Property, error) {
			return repo.List(ctx, demoOwner)
		},
		TTL: demoTTL,
		OnChange: func(s cache.State[[]properties.Property]) {
			fmt.Printf("QUERY  → loading=%v data=%v err=%v\n", s.Loading, names(s.Data), s.Err)
		},
	}

	// ====================================================
	fmt.Println("\n==================== 1) COLD READ ====================")
	cache.UseCachedQuery(ctx, c, opts)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	cache.UseCachedQuery(ctx, c, opts)
	fmt.Println("DB calls so far:", repo.calls.Load())

	// ====================================================
	fmt.Println("\n==================== 3) STALE READ ====================")
	time.Sleep(demoTTL)
	cache.UseCachedQuery(ctx, c, opts)

	// ====================================================
	fmt.Println("\n==================== 4) BACKGROUND REFRESH ====================")
	if err := repo.Create(ctx, &properties.Property{OwnerID: demoOwner, Name: "City Flat"}); err != nil {
		return err
	}
	fmt.Println("DB     → City Flat inserted behind the cache")
	bg := opts
	bg.RefetchInBackground = true
	q := cache.UseCachedQuery(ctx, c, bg)
	fmt.Println("CACHE  → shown immediately:", names(q.State().Data))
	time.Sleep(200 * time.Millisecond)
	fmt.Println("CACHE  → after refresh    :", names(q.State().Data))

	// ====================================================
	fmt.Println("\n==================== 5) INVALIDATE ON WRITE ====================")
	if err := svc.Create(ctx, &properties.Property{OwnerID: demoOwner, Name: "Barn"}); err != nil {
		return err
	}
	fmt.Println("CACHE  → invalidated", properties.OwnerKey(demoOwner))
	cache.UseCachedQuery(ctx, c, opts)

	// ====================================================
	fmt.Println("\n==================== 6) SINGLEFLIGHT ====================")
	c.Invalidate(opts.Key)
	before := repo.calls.Load()

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rows, _ := svc.List(ctx, demoOwner)
			fmt.Printf("GOROUTINE-%d → %v\n", id, names(rows))
		}(i)
	}
	wg.Wait()
	fmt.Println("DB calls for 5 concurrent cold reads:", repo.calls.Load()-before)

	// ====================================================
	fmt.Println("\n==================== 7) SESSION END ====================")
	fmt.Printf("CACHE  → stats before clear: %+v\n", c.Stats())
	c.Clear()
	fmt.Printf("CACHE  → stats after clear : %+v\n", c.Stats())

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	fmt.Println("SYSTEM → total DB calls:", repo.calls.Load())
	return nil
}
