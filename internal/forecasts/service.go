// Package forecasts implements the lookup pipeline shared by every front end:
// coordinates to city name, city name to timeline payload.
//
// Timeline results are cached per normalised city and concurrent identical
// lookups are collapsed into one upstream request.
package forecasts

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"skycast/internal/types"
)

// Cache lookup outcomes reported to the CacheObserver.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// CacheObserver records cache outcomes.
type CacheObserver interface {
	ObserveCache(result string)
}

type noopCacheObserver struct{}

func (noopCacheObserver) ObserveCache(string) {}

// Result is a completed coordinates lookup.
type Result struct {
	City    string                 `json:"city"`
	Payload *types.ForecastPayload `json:"weather"`
}

// Service combines a reverse geocoder and a weather provider. It implements
// both types.ReverseGeocoder and types.WeatherProvider so the view
// controller can use it directly.
type Service struct {
	geocoder  types.ReverseGeocoder
	weather   types.WeatherProvider
	cache     Cache
	namespace string
	observer  CacheObserver
	logger    *slog.Logger
	group     singleflight.Group
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCacheObserver reports cache hits and misses to o.
func WithCacheObserver(o CacheObserver) ServiceOption {
	return func(s *Service) {
		s.observer = o
	}
}

// WithNamespace separates cache keys, typically by unit group, so payloads
// in different units never mix.
func WithNamespace(ns string) ServiceOption {
	return func(s *Service) {
		s.namespace = ns
	}
}

// NewService creates a Service. A nil cache disables caching.
func NewService(geocoder types.ReverseGeocoder, weather types.WeatherProvider, cache Cache, logger *slog.Logger, opts ...ServiceOption) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		geocoder:  geocoder,
		weather:   weather,
		cache:     cache,
		namespace: "default",
		observer:  noopCacheObserver{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReverseGeocode validates coords and delegates to the geocoder.
func (s *Service) ReverseGeocode(ctx context.Context, coords types.Coordinates) (string, error) {
	if err := types.ValidateCoordinates(coords); err != nil {
		return "", err
	}
	return s.geocoder.ReverseGeocode(ctx, coords)
}

// Timeline returns the payload for city from cache or upstream. Cache
// failures are logged and treated as misses.
func (s *Service) Timeline(ctx context.Context, city string) (*types.ForecastPayload, error) {
	city, err := types.NormalizeCity(city)
	if err != nil {
		return nil, err
	}
	key := CacheKey(s.namespace, city)

	if p, ok, err := s.cache.Get(ctx, key); err != nil {
		s.observer.ObserveCache(CacheError)
		s.logger.WarnContext(ctx, "forecast cache read failed", "key", key, "error", err)
	} else if ok {
		s.observer.ObserveCache(CacheHit)
		return p, nil
	}
	s.observer.ObserveCache(CacheMiss)

	// The shared call outlives any single caller; each caller still returns
	// as soon as its own context ends.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		p, err := s.weather.Timeline(fctx, city)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fctx, key, p); err != nil {
			s.observer.ObserveCache(CacheError)
			s.logger.WarnContext(fctx, "forecast cache write failed", "key", key, "error", err)
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weather lookup cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "weather lookup shared", "city", city)
		}
		return res.Val.(*types.ForecastPayload).Clone(), nil
	}
}

// Locate resolves coords to a city and fetches its weather.
func (s *Service) Locate(ctx context.Context, coords types.Coordinates) (*Result, error) {
	city, err := s.ReverseGeocode(ctx, coords)
	if err != nil {
		return nil, err
	}
	p, err := s.Timeline(ctx, city)
	if err != nil {
		return nil, err
	}
	return &Result{City: city, Payload: p}, nil
}
