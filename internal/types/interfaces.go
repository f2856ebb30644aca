package types

import "context"

// Locator obtains the device position from whatever platform capability is
// available (a fixed configuration, an IP lookup, or coordinates supplied by
// a browser).
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// ReverseGeocoder converts coordinates to a display city name.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords Coordinates) (string, error)
}

// WeatherProvider fetches the full timeline payload for a city.
type WeatherProvider interface {
	Timeline(ctx context.Context, city string) (*ForecastPayload, error)
}
