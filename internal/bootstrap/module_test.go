package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/internal/bootstrap/config"
	"github.com/krisalay/query-cache/internal/properties"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "database:\n  dsn: " + filepath.Join(dir, "state", "properties.sqlite") + "\n" +
		"http:\n  addr: 127.0.0.1:0\n" +
		"cache:\n  sweep_interval: 0s\n  capacity: 100\n  eviction: lfu\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestModuleStartsAndStops(t *testing.T) {
	r := require.New(t)
	cfgFile := writeConfig(t)

	var app *App
	fxApp := fxtest.New(t,
		Module,
		HTTPModule,
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(&app),
	)
	fxApp.RequireStart()

	ctx := context.Background()
	r.NoError(app.Properties.Create(ctx, &properties.Property{OwnerID: "42", Name: "Lake House"}))
	got, err := app.Properties.List(ctx, "42")
	r.NoError(err)
	r.Len(got, 1)
	r.Contains(app.Cache.Stats().Keys, properties.OwnerKey("42"))

	fxApp.RequireStop()

	_, err = app.Cache.GetOrLoad(ctx, "after-stop", time.Minute, func(context.Context) (any, error) { return 1, nil })
	r.ErrorIs(err, cache.ErrClosed)
}

func TestCacheOptions(t *testing.T) {
	r := require.New(t)

	c, err := cache.New(CacheOptions(config.CacheConfig{
		DefaultTTL:     time.Second,
		Shards:         2,
		Capacity:       1,
		Eviction:       "fifo",
		Backend:        "cow",
		Dedupe:         true,
		OrderedWrites:  true,
		RefreshWorkers: 1,
		RefreshQueue:   1,
	}, nil, nil)...)
	r.NoError(err)
	t.Cleanup(c.Close)

	r.Equal(time.Second, c.DefaultTTL())

	c.Set("a", 1)
	c.Set("a", 2)
	r.Equal(1, c.Len())
}
