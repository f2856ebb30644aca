package types

import (
	"fmt"
	"strings"
)

// Coordinate bounds (WGS84).
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// Coordinates is a device position produced by a successful geolocation.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// String renders the pair with four decimals, enough for city-level lookups.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// ValidateCoordinates checks that both axes are inside WGS84 bounds.
func ValidateCoordinates(c Coordinates) error {
	if c.Latitude < MinLat || c.Latitude > MaxLat {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidLat,
			"latitude must be between -90 and 90", nil,
			map[string]any{"latitude": c.Latitude})
	}
	if c.Longitude < MinLon || c.Longitude > MaxLon {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidLon,
			"longitude must be between -180 and 180", nil,
			map[string]any{"longitude": c.Longitude})
	}
	return nil
}

// NormalizeCity trims surrounding whitespace and rejects an empty result.
func NormalizeCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", NewAppError(ErrCodeValidationEmptyCity, "city name is empty", nil)
	}
	return city, nil
}
