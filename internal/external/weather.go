package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"skycast/internal/types"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// WeatherClient fetches Visual Crossing timeline documents.
type WeatherClient struct {
	base      *BaseClient
	baseURL   string
	apiKey    types.SecretString
	unitGroup string
}

// NewWeatherClient creates a WeatherClient. A missing API key is a
// configuration error reported here, before any request is attempted.
func NewWeatherClient(base *BaseClient, baseURL string, apiKey types.SecretString, unitGroup string) (*WeatherClient, error) {
	if strings.TrimSpace(apiKey.Unmask()) == "" {
		return nil, types.NewAppError(types.ErrCodeConfigMissingAPIKey, "weather API key is not configured", nil)
	}
	if unitGroup == "" {
		unitGroup = "us"
	}
	return &WeatherClient{
		base:      base,
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		unitGroup: unitGroup,
	}, nil
}

// UnitGroup returns the configured Visual Crossing unit group.
func (c *WeatherClient) UnitGroup() string {
	return c.unitGroup
}

// Timeline fetches current conditions and the daily outlook for city.
// An empty city is rejected without a network call. The payload is decoded
// into a fresh value and validated, so a caller either gets a complete
// document or an error.
func (c *WeatherClient) Timeline(ctx context.Context, city string) (*types.ForecastPayload, error) {
	city, err := types.NormalizeCity(city)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.apiKey.Unmask())
	q.Set("unitGroup", c.unitGroup)
	q.Set("contentType", "json")
	u := fmt.Sprintf("%s/timeline/%s?%s", c.baseURL, url.PathEscape(city), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "failed to build weather request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamWeather,
			"weather request failed", err, map[string]any{"city": city})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		details := map[string]any{"city": city, "status": resp.StatusCode}
		// Visual Crossing answers an unknown location with 400.
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundCity,
				fmt.Sprintf("weather service could not resolve %q", city),
				fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), details)
		}
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather service returned status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))), details)
	}

	var payload types.ForecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "failed to decode weather response", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "incomplete weather response", err)
	}
	return &payload, nil
}
