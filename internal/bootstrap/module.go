package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"gorm.io/gorm"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/eviction"
	"github.com/krisalay/query-cache/internal/bootstrap/config"
	"github.com/krisalay/query-cache/internal/bootstrap/database"
	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/httpapi"
	"github.com/krisalay/query-cache/internal/logging"
	"github.com/krisalay/query-cache/internal/properties"
	"github.com/krisalay/query-cache/metrics"
	"github.com/krisalay/query-cache/shard"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideLogger),
	fx.Provide(provideDatabase),
	fx.Provide(provideMetrics),
	fx.Provide(provideCache),
	fx.Provide(
		fx.Annotate(
			properties.NewGormRepository,
			fx.As(new(properties.Repository)),
		),
	),
	fx.Provide(properties.NewService),
	fx.Provide(provideApp),
)

// HTTPModule adds the HTTP server on top of Module. The server listens on start
// and shuts down gracefully on stop.
var HTTPModule = fx.Options(
	fx.Provide(provideRouter),
	fx.Invoke(runHTTPServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideLogger(cfg config.Config) (*slog.Logger, error) {
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, errs.Wrap(err, "build logger")
	}
	return logger.With(slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env)), nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config, logger *slog.Logger) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(logging.WithLogger(ctx, logger), slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := properties.Migrate(logCtx, db); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideMetrics(cfg config.Config) (*prometheus.Registry, *metrics.Prometheus) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg, cfg.Metrics.Namespace)
}

func provideCache(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger, m *metrics.Prometheus) (*cache.QueryCache, error) {
	c, err := cache.New(CacheOptions(cfg.Cache, logger, m)...)
	if err != nil {
		return nil, errs.Wrap(err, "build query cache")
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			c.Close()
			return nil
		},
	})
	return c, nil
}

// CacheOptions translates the cache section of the config into cache options.
func CacheOptions(cfg config.CacheConfig, logger *slog.Logger, m *metrics.Prometheus) []cache.Option {
	opts := []cache.Option{
		cache.WithDefaultTTL(cfg.DefaultTTL),
		cache.WithRetention(cfg.Retention),
		cache.WithSweepInterval(cfg.SweepInterval),
		cache.WithIdleRetention(cfg.IdleRetention),
		cache.WithShards(cfg.Shards),
		cache.WithStoreBackend(shard.Backend(cfg.Backend)),
		cache.WithDeduplication(cfg.Dedupe),
		cache.WithOrderedWrites(cfg.OrderedWrites),
		cache.WithRefreshWorkers(cfg.RefreshWorkers, cfg.RefreshQueue),
		cache.WithLogger(logger),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, cache.WithCapacity(cfg.Capacity, eviction.PolicyType(strings.ToUpper(cfg.Eviction))))
	}
	if m != nil {
		opts = append(opts, cache.WithMetrics(m))
	}
	return opts
}

func provideApp(cfg config.Config, logger *slog.Logger, db *gorm.DB, c *cache.QueryCache, svc *properties.Service) *App {
	return &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Cache:      c,
		Properties: svc,
	}
}

// svc is requested before c so the database is built, and therefore stopped,
// before the cache: the cache drains refreshes that still query it.
func provideRouter(ctx context.Context, logger *slog.Logger, svc *properties.Service, c *cache.QueryCache, reg *prometheus.Registry) http.Handler {
	return httpapi.NewRouter(logging.WithLogger(ctx, logger), c, svc, reg)
}

func runHTTPServer(lc fx.Lifecycle, ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) {
	logCtx := logging.WithAttrs(logging.WithLogger(ctx, logger), slog.String("component", "bootstrap.http"))
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return errs.Wrapf(err, "listen on %s", cfg.HTTP.Addr)
			}
			logging.Info(logCtx, "http server listening", slog.String("addr", ln.Addr().String()))

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logging.Error(logCtx, "http server stopped", slog.Any("err", errs.Loggable(err)))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(stopCtx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errs.Wrap(err, "shutdown http server")
			}
			logging.Info(logCtx, "http server stopped")
			return nil
		},
	})
}
