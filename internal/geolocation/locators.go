package geolocation

import (
	"context"
	"fmt"

	"skycast/internal/types"
)

// Fixed always reports the same position.
type Fixed types.Coordinates

// Locate implements types.Locator.
func (f Fixed) Locate(ctx context.Context) (types.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "geolocation cancelled", err)
	}
	return types.Coordinates(f), nil
}

// Denied models a user refusing the location permission.
type Denied struct{}

// Locate implements types.Locator.
func (Denied) Locate(context.Context) (types.Coordinates, error) {
	return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationDenied, "location permission denied", nil)
}

// Unavailable models a platform without any geolocation capability.
type Unavailable struct{}

// Locate implements types.Locator.
func (Unavailable) Locate(context.Context) (types.Coordinates, error) {
	return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "geolocation is not supported", nil)
}

// LocatorFunc adapts a function to types.Locator.
type LocatorFunc func(ctx context.Context) (types.Coordinates, error)

// Locate implements types.Locator.
func (f LocatorFunc) Locate(ctx context.Context) (types.Coordinates, error) {
	return f(ctx)
}

// Select returns the locator named by the LOCATOR setting. ip is the
// already-built IP locator; lat and lon are required for "fixed".
func Select(kind string, ip types.Locator, lat, lon *float64) (types.Locator, error) {
	switch kind {
	case "ip":
		if ip == nil {
			return nil, fmt.Errorf("ip locator requested but not configured")
		}
		return ip, nil
	case "fixed":
		if lat == nil || lon == nil {
			return nil, fmt.Errorf("fixed locator requires latitude and longitude")
		}
		return Fixed{Latitude: *lat, Longitude: *lon}, nil
	case "none", "":
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown locator %q", kind)
	}
}
