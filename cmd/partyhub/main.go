package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/staffparty/partyhub/cmd/partyhub/container"
	"github.com/staffparty/partyhub/cmd/partyhub/routes"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/bootstrap"
	"github.com/staffparty/partyhub/common/cache"
	commonmw "github.com/staffparty/partyhub/common/middleware"
	"github.com/staffparty/partyhub/common/ratelimit"
	"github.com/staffparty/partyhub/common/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bootstrap common components (DB, Redis, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "partyhub", bootstrap.WithMigrations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap partyhub: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(context.Background())

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	if err := serviceContainer.Start(ctx); err != nil {
		components.Logger.Error("Failed to start background jobs", "error", err)
		os.Exit(1)
	}
	defer serviceContainer.Shutdown()

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e, serviceContainer)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(ctx, e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, c *container.Container) {
	cfg := c.Components.Config
	log := c.Components.Logger

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Service.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomw.RequestID())
	e.Use(commonmw.Correlation())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			log.WithContext(c.Request().Context()).Log(c.Request().Context(), level, "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	e.Use(c.HTTPMetrics.Middleware())
	e.Use(apperrors.Middleware(log, c.ErrorMetrics))
	e.Use(commonmw.RateLimit(c.RateLimiter, ratelimit.ClassGlobal, commonmw.Global))
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := components.Health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "partyhub",
				"error":   err.Error(),
			})
		}
		payload := map[string]any{
			"status":  "ok",
			"service": "partyhub",
		}
		if mc, ok := components.Cache.(*cache.MemoryCache); ok {
			payload["cache"] = mc.Stats()
		}
		return c.JSON(http.StatusOK, payload)
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterSessionRoutes(e, serviceContainer)
	routes.RegisterVoteRoutes(e, serviceContainer)
	routes.RegisterGiftExchangeRoutes(e, serviceContainer)
	routes.RegisterAdminRoutes(e, serviceContainer)
}

// startServer serves on the configured port until ctx is cancelled
func startServer(ctx context.Context, e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("partyhub", components.Config.Service.Port, e, components.Logger)

	if err := srv.Run(ctx); err != nil {
		components.Logger.Error("Server error", "error", err)
	}
}
