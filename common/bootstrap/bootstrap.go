package bootstrap

import (
	"context"
	"fmt"

	"github.com/staffparty/partyhub/common/cache"
	"github.com/staffparty/partyhub/common/config"
	"github.com/staffparty/partyhub/common/db"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
	"github.com/staffparty/partyhub/common/queue"
	"github.com/staffparty/partyhub/common/redis"
	"github.com/staffparty/partyhub/common/telemetry"
)

// Setup initializes all service components.
// This is the main entry point for all services.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		Clock:        options.clock,
		cleanupFuncs: make([]func(context.Context) error, 0),
	}

	// 1. Configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := components.Config

	// 2. Logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", cfg.Service.Environment,
	)

	components.Registry = metrics.NewRegistry()

	// 3. Database
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, cfg, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func(context.Context) error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})

		if options.migrate {
			if err := components.DB.Migrate(ctx); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(ctx, components.DB); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}
	}

	// 4. Redis. Unreachable Redis degrades the service instead of failing startup.
	if !options.skipRedis {
		components.Redis, err = redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, components.Logger)
		if err != nil {
			components.Logger.Warn("redis unavailable, continuing without session cache and rate limits", "error", err)
		} else {
			components.addCleanup(func(context.Context) error {
				components.Logger.Info("closing redis connection")
				return components.Redis.Close()
			})
		}
	}

	// 5. Queue
	if !options.skipQueue {
		components.Queue = queue.NewMemoryQueue(components.Logger)
		components.addCleanup(func(context.Context) error {
			components.Logger.Info("closing queue")
			return components.Queue.Close()
		})
	}

	// 6. Cache
	if !options.skipCache && cfg.Cache.Enabled {
		components.Cache = cache.NewMemoryCache(components.Logger)
		components.addCleanup(func(context.Context) error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 7. Telemetry
	if !options.skipTelemetry && (cfg.Telemetry.EnablePprof || cfg.Telemetry.EnableMetrics) {
		components.Telemetry = telemetry.New(telemetry.Options{
			EnablePprof:   cfg.Telemetry.EnablePprof,
			PprofPort:     cfg.Telemetry.PprofPort,
			EnableMetrics: cfg.Telemetry.EnableMetrics,
			MetricsPort:   cfg.Telemetry.MetricsPort,
		}, components.Registry, components.Logger)

		if err := components.Telemetry.Start(ctx); err != nil {
			// Don't fail startup if telemetry fails
			components.Logger.Warn("failed to start telemetry", "error", err)
		} else {
			components.addCleanup(components.Telemetry.Shutdown)
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"queue", components.Queue != nil,
		"cache", components.Cache != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
