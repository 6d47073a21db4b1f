package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/krisalay/query-cache/eviction"
	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/logging"
	"github.com/krisalay/query-cache/shard"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	DefaultTTL     time.Duration `mapstructure:"default_ttl"`
	Retention      time.Duration `mapstructure:"retention"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	IdleRetention  bool          `mapstructure:"idle_retention"`
	Shards         int           `mapstructure:"shards"`
	Capacity       int           `mapstructure:"capacity"`
	Eviction       string        `mapstructure:"eviction"`
	Backend        string        `mapstructure:"backend"`
	Dedupe         bool          `mapstructure:"dedupe"`
	OrderedWrites  bool          `mapstructure:"ordered_writes"`
	RefreshWorkers int           `mapstructure:"refresh_workers"`
	RefreshQueue   int           `mapstructure:"refresh_queue"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Defaults and env still apply without a file.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Duration("cache_default_ttl", cfg.Cache.DefaultTTL),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Cache.Shards <= 0 {
		return fmt.Errorf("cache.shards must be positive, got %d", c.Cache.Shards)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive, got %s", c.Cache.DefaultTTL)
	}
	if c.Cache.Capacity > 0 && !eviction.PolicyType(strings.ToUpper(c.Cache.Eviction)).Valid() {
		return fmt.Errorf("unknown cache.eviction %q", c.Cache.Eviction)
	}
	switch shard.Backend(c.Cache.Backend) {
	case shard.BackendCOW, shard.BackendTTLCache:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "query-cache")
	v.SetDefault("app.env", "local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.retention", "30m")
	v.SetDefault("cache.sweep_interval", "10m")
	v.SetDefault("cache.idle_retention", false)
	v.SetDefault("cache.shards", 4)
	v.SetDefault("cache.capacity", 0)
	v.SetDefault("cache.eviction", string(eviction.LRU))
	v.SetDefault("cache.backend", string(shard.BackendCOW))
	v.SetDefault("cache.dedupe", true)
	v.SetDefault("cache.ordered_writes", true)
	v.SetDefault("cache.refresh_workers", 4)
	v.SetDefault("cache.refresh_queue", 256)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".data/properties.sqlite")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("metrics.namespace", "querycache")
}
