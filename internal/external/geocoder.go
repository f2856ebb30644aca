package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"skycast/internal/types"
)

// Place is the subset of the BigDataCloud reverse-geocode-client response the
// widget uses.
type Place struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
}

// DisplayName returns City when present, otherwise "locality, country".
// It returns "" when the response carried none of the three fields.
func (p Place) DisplayName() string {
	if city := strings.TrimSpace(p.City); city != "" {
		return city
	}
	locality := strings.TrimSpace(p.Locality)
	country := strings.TrimSpace(p.CountryName)
	if locality == "" && country == "" {
		return ""
	}
	return fmt.Sprintf("%s, %s", locality, country)
}

// GeocoderClient calls the BigDataCloud client-side reverse geocoding
// endpoint, which needs no credential.
type GeocoderClient struct {
	base     *BaseClient
	baseURL  string
	language string
}

// NewGeocoderClient creates a GeocoderClient. baseURL is the API root, e.g.
// https://api.bigdatacloud.net/data.
func NewGeocoderClient(base *BaseClient, baseURL, language string) *GeocoderClient {
	if language == "" {
		language = "en"
	}
	return &GeocoderClient{
		base:     base,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
	}
}

// Lookup returns the raw place fields for coords.
func (c *GeocoderClient) Lookup(ctx context.Context, coords types.Coordinates) (Place, error) {
	if err := types.ValidateCoordinates(coords); err != nil {
		return Place{}, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("localityLanguage", c.language)
	u := c.baseURL + "/reverse-geocode-client?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Place{}, types.NewAppError(types.ErrCodeUpstreamGeocode, "failed to build geocode request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return Place{}, types.NewAppError(types.ErrCodeUpstreamGeocode, "reverse geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Place{}, types.NewAppErrorWithDetails(types.ErrCodeUpstreamGeocode,
			fmt.Sprintf("reverse geocoding returned status %d", resp.StatusCode), nil,
			map[string]any{"status": resp.StatusCode})
	}

	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return Place{}, types.NewAppError(types.ErrCodeUpstreamGeocode, "failed to decode reverse geocoding response", err)
	}
	return place, nil
}

// ReverseGeocode resolves coords to a display city name.
func (c *GeocoderClient) ReverseGeocode(ctx context.Context, coords types.Coordinates) (string, error) {
	place, err := c.Lookup(ctx, coords)
	if err != nil {
		return "", err
	}
	name := place.DisplayName()
	if name == "" {
		return "", types.NewAppErrorWithDetails(types.ErrCodeUpstreamGeocodeEmpty,
			"reverse geocoding returned no city, locality or country", nil,
			map[string]any{"coordinates": coords.String()})
	}
	return name, nil
}
