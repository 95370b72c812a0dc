package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/staffparty/partyhub/common/cache"
	"github.com/staffparty/partyhub/common/config"
	"github.com/staffparty/partyhub/common/db"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/queue"
	"github.com/staffparty/partyhub/common/redis"
	"github.com/staffparty/partyhub/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config    *config.Config
	Logger    *logger.Logger
	Clock     clockwork.Clock
	DB        *db.DB
	Redis     *redis.Client // nil when Redis is skipped or unreachable
	Queue     queue.Queue
	Cache     cache.Cache
	Registry  *prometheus.Registry
	Telemetry *telemetry.Telemetry

	// Internal
	cleanupFuncs []func(context.Context) error
}

// Shutdown performs graceful shutdown of all components.
// Should be called with defer after Setup().
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// LIFO
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Health(ctx); err != nil {
			return fmt.Errorf("database unhealthy: %w", err)
		}
	}

	// Redis is optional; callers degrade when it is down
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			c.Logger.Warn("redis unhealthy", "error", err)
		}
	}

	return nil
}

// addCleanup registers a cleanup function
func (c *Components) addCleanup(fn func(context.Context) error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
