// Package main is the entry point for the skycast HTTP service.
//
// It loads configuration, builds the upstream clients, the forecast service
// and its cache, mounts the weather endpoints and the rendered widget page on
// the core chassis (middleware, routing, health checks, metrics) and starts
// serving.
//
// Outside AWS Lambda it runs as a standard HTTP server on the configured
// port. Inside Lambda the same router serves API Gateway HTTP API events.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"skycast/internal/api/handlers"
	"skycast/internal/config"
	"skycast/internal/core"
	"skycast/internal/external"
	"skycast/internal/forecasts"
	"skycast/internal/presenter"
	"skycast/internal/telemetry"
)

// cacheSweepInterval is how often expired in-process cache entries are dropped.
const cacheSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(awsRegion())
	}
	cfg, err := config.Load(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("skycast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		return runLambda(a.server, logger)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if a.memCache != nil {
		go sweepCache(ctx, a.memCache, cacheSweepInterval, logger)
	}

	return runHTTPServer(a.server, cfg, logger)
}

// app is the fully wired service.
type app struct {
	server   *core.Server
	metrics  *telemetry.Metrics
	memCache *forecasts.MemoryCache
}

// buildApp wires configuration into a mounted core.Server.
func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	metrics := telemetry.New(cfg.Service, !isLambdaEnvironment())

	clients, err := external.NewClientRegistry(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("building upstream clients: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.MetricsHandler = metrics.Handler()
	for _, base := range clients.Bases {
		srv.HealthProbes = append(srv.HealthProbes, core.BreakerProbe{Source: base})
	}

	a := &app{server: srv, metrics: metrics}

	cache, err := buildCache(cfg, a, logger)
	if err != nil {
		return nil, err
	}

	service := forecasts.NewService(clients.Geocoder, clients.Weather, cache, logger,
		forecasts.WithCacheObserver(metrics),
		forecasts.WithNamespace(clients.Weather.UnitGroup()),
	)

	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	weatherHandler := handlers.NewWeatherHandler(service, srv.Validator, presenter.Options{
		UnitGroup: clients.Weather.UnitGroup(),
		Location:  loc,
	}, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, weatherHandler.RegisterRoutes)
	srv.RootRouteRegistrars = append(srv.RootRouteRegistrars, weatherHandler.RegisterPage)
	srv.MountRoutes()

	return a, nil
}

// buildCache selects the forecast cache: none when the TTL is zero, Redis when
// REDIS_URL is set, and the in-process cache otherwise.
func buildCache(cfg *config.Config, a *app, logger *slog.Logger) (forecasts.Cache, error) {
	if cfg.Cache.TTL <= 0 {
		logger.Info("forecast cache disabled")
		return forecasts.NoopCache{}, nil
	}

	if url := cfg.Cache.RedisURL.Unmask(); url != "" {
		rdb, err := forecasts.NewRedisClient(url)
		if err != nil {
			return nil, err
		}
		cache, err := forecasts.NewRedisCache(rdb, cfg.Cache.TTL)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		a.server.Closers = append(a.server.Closers, rdb)
		a.server.HealthProbes = append(a.server.HealthProbes, redisProbe{rdb: rdb})
		logger.Info("forecast cache: redis", "ttl", cfg.Cache.TTL)
		return cache, nil
	}

	a.memCache = forecasts.NewMemoryCache(cfg.Cache.TTL)
	logger.Info("forecast cache: memory", "ttl", cfg.Cache.TTL)
	return a.memCache, nil
}

// redisProbe reports the shared cache as unhealthy when PING fails.
type redisProbe struct {
	rdb redis.Cmdable
}

func (redisProbe) Name() string { return "redis" }

func (p redisProbe) Check(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// sweepCache drops expired entries every interval until ctx is done.
func sweepCache(ctx context.Context, c *forecasts.MemoryCache, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				logger.Debug("forecast cache swept", "removed", n, "remaining", c.Len())
			}
		}
	}
}

// awsRegion returns the region for SSM lookups, defaulting to us-east-1.
func awsRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Redis connections and other closers.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
