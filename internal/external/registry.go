package external

import (
	"fmt"
	"net/http"

	"skycast/internal/config"
)

// Upstream names, used for breaker, metric and health probe labels.
const (
	UpstreamGeocode = "bigdatacloud"
	UpstreamWeather = "visualcrossing"
	UpstreamGeoIP   = "ip-api"
)

// ClientRegistry holds every vendor client built from configuration. It is
// the single place the rest of the application gets outbound clients from.
type ClientRegistry struct {
	Geocoder *GeocoderClient
	Weather  *WeatherClient
	GeoIP    *IPLocator

	// Bases exposes the underlying clients for health probes.
	Bases []*BaseClient
}

// NewClientRegistry builds the clients. Each upstream gets its own
// http.Client timeout and circuit breaker so one failing vendor never trips
// another.
func NewClientRegistry(cfg *config.Config, observer Observer, opts ...BaseClientOption) (*ClientRegistry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	policy := RetryPolicy{
		MaxRetries: cfg.Upstream.MaxRetries,
		MinWait:    cfg.Upstream.MinWait,
		MaxWait:    cfg.Upstream.MaxWait,
	}
	newBase := func(name string) *BaseClient {
		all := append([]BaseClientOption{WithObserver(observer)}, opts...)
		return NewBaseClient(
			&http.Client{Timeout: cfg.Upstream.Timeout},
			name,
			policy,
			cfg.Upstream.UserAgent,
			all...,
		)
	}

	geocodeBase := newBase(UpstreamGeocode)
	weatherBase := newBase(UpstreamWeather)
	geoipBase := newBase(UpstreamGeoIP)

	weather, err := NewWeatherClient(weatherBase, cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.UnitGroup)
	if err != nil {
		return nil, err
	}

	return &ClientRegistry{
		Geocoder: NewGeocoderClient(geocodeBase, cfg.Geocode.BaseURL, cfg.Geocode.Language),
		Weather:  weather,
		GeoIP:    NewIPLocator(geoipBase, cfg.Location.IPBaseURL),
		Bases:    []*BaseClient{geocodeBase, weatherBase, geoipBase},
	}, nil
}
