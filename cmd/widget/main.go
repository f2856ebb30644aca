// Package main implements the skycast terminal widget.
//
// On start the widget locates the device once, reverse geocodes the
// coordinates to a city, fetches that city's forecast and renders the panel.
// Every line typed on stdin is then a manual city search; an empty line is
// rejected without a network call. EOF or ":q" exits.
//
// Usage:
//
//	go run ./cmd/widget
//	go run ./cmd/widget --city="New York"
//	go run ./cmd/widget --locator=none
//
// Configuration comes from the environment (or a .env file); WEATHER_API_KEY
// is required. Logs go to stderr so stdout carries only the rendering.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"skycast/internal/config"
	"skycast/internal/external"
	"skycast/internal/forecasts"
	"skycast/internal/geolocation"
	"skycast/internal/presenter"
	"skycast/internal/view"
)

func main() {
	cityFlag := flag.String("city", "", "Search this city instead of auto-locating")
	locatorFlag := flag.String("locator", "", "Override LOCATOR (ip, fixed or none)")
	logLevelFlag := flag.String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: widget [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Show the current weather and a six-day outlook.\n")
		fmt.Fprintf(os.Stderr, "Type a city name and press enter to search; :q to quit.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cityFlag, *locatorFlag, *logLevelFlag, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, city, locatorKind, logLevel string, in io.Reader, out io.Writer) error {
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		provider = config.NewSSMProvider(region)
	}
	cfg, err := config.Load(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if locatorKind != "" {
		cfg.Location.Locator = locatorKind
	}

	logger := newLogger(logLevel, os.Stderr)

	w, err := newWidget(cfg, logger, out)
	if err != nil {
		return err
	}
	return w.run(ctx, city, in)
}

// newWidget wires the lookup pipeline from configuration.
func newWidget(cfg *config.Config, logger *slog.Logger, out io.Writer) (*widget, error) {
	clients, err := external.NewClientRegistry(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream clients: %w", err)
	}

	locator, err := geolocation.Select(cfg.Location.Locator, clients.GeoIP, cfg.Location.Latitude, cfg.Location.Longitude)
	if err != nil {
		return nil, fmt.Errorf("selecting locator: %w", err)
	}

	var cache forecasts.Cache = forecasts.NoopCache{}
	if cfg.Cache.TTL > 0 {
		cache = forecasts.NewMemoryCache(cfg.Cache.TTL)
	}
	service := forecasts.NewService(clients.Geocoder, clients.Weather, cache, logger,
		forecasts.WithNamespace(clients.Weather.UnitGroup()))

	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}

	ctrl := view.NewController(geolocation.NewResolver(locator, logger), service, service, logger)
	return newWidgetWithController(ctrl, presenter.Options{
		UnitGroup: clients.Weather.UnitGroup(),
		Location:  loc,
	}, out, logger), nil
}

// newLogger creates a JSON slog.Logger writing to w at the given level.
func newLogger(level string, w io.Writer) *slog.Logger {
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
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
