package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"skycast/internal/types"
)

// ipAPIResponse is the ip-api.com /json response restricted by the fields
// parameter.
type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLocator approximates the device position from its public IP. It is the
// terminal counterpart of a browser's geolocation capability.
type IPLocator struct {
	base    *BaseClient
	baseURL string
}

// NewIPLocator creates an IPLocator against baseURL (e.g. http://ip-api.com).
func NewIPLocator(base *BaseClient, baseURL string) *IPLocator {
	return &IPLocator{base: base, baseURL: strings.TrimRight(baseURL, "/")}
}

// Locate implements types.Locator. Every failure is reported as
// geolocation_unavailable so callers treat it like a refused permission.
func (l *IPLocator) Locate(ctx context.Context) (types.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json/?fields=status,message,lat,lon", nil)
	if err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "failed to build geolocation request", err)
	}

	resp, err := l.base.Do(req)
	if err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "IP geolocation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable,
			fmt.Sprintf("IP geolocation returned status %d", resp.StatusCode), nil)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "failed to decode IP geolocation response", err)
	}
	if body.Status != "success" {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable,
			"IP geolocation failed: "+body.Message, nil)
	}

	coords := types.Coordinates{Latitude: body.Lat, Longitude: body.Lon}
	if err := types.ValidateCoordinates(coords); err != nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "IP geolocation returned invalid coordinates", err)
	}
	return coords, nil
}
