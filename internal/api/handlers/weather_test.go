package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycast/internal/core"
	"skycast/internal/forecasts"
	"skycast/internal/presenter"
	"skycast/internal/types"
)

// --- Mock Service ---

type mockWeatherService struct {
	payloads   map[string]*types.ForecastPayload
	cities     map[types.Coordinates]string
	weatherErr error
	geocodeErr error

	timelineCalls []string
	geocodeCalls  []types.Coordinates
}

func (m *mockWeatherService) Timeline(_ context.Context, city string) (*types.ForecastPayload, error) {
	m.timelineCalls = append(m.timelineCalls, city)
	if m.weatherErr != nil {
		return nil, m.weatherErr
	}
	p, ok := m.payloads[city]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundCity, "unknown city", nil)
	}
	return p, nil
}

func (m *mockWeatherService) ReverseGeocode(_ context.Context, c types.Coordinates) (string, error) {
	m.geocodeCalls = append(m.geocodeCalls, c)
	if m.geocodeErr != nil {
		return "", m.geocodeErr
	}
	return m.cities[c], nil
}

func (m *mockWeatherService) Locate(ctx context.Context, c types.Coordinates) (*forecasts.Result, error) {
	city, err := m.ReverseGeocode(ctx, c)
	if err != nil {
		return nil, err
	}
	p, err := m.Timeline(ctx, city)
	if err != nil {
		return nil, err
	}
	return &forecasts.Result{City: city, Payload: p}, nil
}

// --- Helpers ---

var newYork = types.Coordinates{Latitude: 40.71, Longitude: -74.0}

func sevenDays() *types.ForecastPayload {
	days := make([]types.DayForecast, 7)
	conds := []string{"Clear", "Rain", "Snow", "Overcast", "Partially cloudy", "Rain, Overcast", "Clear"}
	for i := range days {
		days[i] = types.DayForecast{
			Datetime:   time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Temp:       float64(60 + i),
			Conditions: conds[i],
		}
	}
	return &types.ForecastPayload{
		ResolvedAddress: "New York, NY, United States",
		Description:     "Similar temperatures continuing.",
		CurrentConditions: &types.CurrentConditions{
			Temp:         72,
			FeelsLike:    70,
			Conditions:   "Clear",
			SunriseEpoch: 1704110400,
			SunsetEpoch:  1704145500,
		},
		Days: days,
	}
}

func newTestWeatherHandler(svc WeatherService) *WeatherHandler {
	logger := slog.New(slog.DiscardHandler)
	h := NewWeatherHandler(svc, core.NewValidator(logger), presenter.Options{UnitGroup: "us", Location: time.UTC}, logger)
	h.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func makeWeatherRouter(h *WeatherHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	h.RegisterPage(r)
	return r
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()
	var env core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

// --- HandleGetWeather ---

func TestHandleGetWeather_Success(t *testing.T) {
	svc := &mockWeatherService{payloads: map[string]*types.ForecastPayload{"New York": sevenDays()}}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/weather?city=New+York")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeData[WeatherResponse](t, rec)
	assert.Equal(t, "New York", resp.City)
	assert.Equal(t, presenter.ThemeDay, resp.Theme)
	require.NotNil(t, resp.Panel)
	assert.Equal(t, "72°F", resp.Panel.Temperature)
	assert.Equal(t, "70°F", resp.Panel.FeelsLike)
	assert.Len(t, resp.Panel.Cards, 6)
	assert.Equal(t, "Tuesday", resp.Panel.Cards[0].Weekday)
	assert.Equal(t, "New York, NY, United States", resp.Forecast.ResolvedAddress)
}

func TestHandleGetWeather_BlankCity(t *testing.T) {
	for _, target := range []string{"/v1/weather", "/v1/weather?city=", "/v1/weather?city=%20%20"} {
		t.Run(target, func(t *testing.T) {
			svc := &mockWeatherService{}
			rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(types.ErrCodeValidationEmptyCity), decodeErr(t, rec).Code)
			assert.Empty(t, svc.timelineCalls, "no weather request for a blank city")
		})
	}
}

func TestHandleGetWeather_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"upstream", types.NewAppError(types.ErrCodeUpstreamWeather, "weather service failed", nil), http.StatusBadGateway, string(types.ErrCodeUpstreamWeather)},
		{"rate limited", types.NewAppError(types.ErrCodeUpstreamRateLimited, "slow down", nil), http.StatusTooManyRequests, string(types.ErrCodeUpstreamRateLimited)},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, string(types.ErrCodeInternalUnexpected)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWeatherService{weatherErr: tt.err}
			rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/weather?city=Paris")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeErr(t, rec).Code)
		})
	}
}

// --- HandleLocate ---

func TestHandleLocate_Success(t *testing.T) {
	svc := &mockWeatherService{
		cities:   map[types.Coordinates]string{newYork: "New York"},
		payloads: map[string]*types.ForecastPayload{"New York": sevenDays()},
	}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/weather/locate?lat=40.71&lon=-74.0")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeData[WeatherResponse](t, rec)
	assert.Equal(t, "New York", resp.City)
	assert.Equal(t, "72°F", resp.Panel.Temperature)
	assert.Equal(t, []types.Coordinates{newYork}, svc.geocodeCalls)
}

func TestHandleLocate_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		query string
		code  types.ErrorCode
	}{
		{"lat=abc&lon=1", types.ErrCodeValidationInvalidLat},
		{"lat=1&lon=abc", types.ErrCodeValidationInvalidLon},
		{"lat=91&lon=1", types.ErrCodeValidationInvalidLat},
		{"lat=1&lon=181", types.ErrCodeValidationInvalidLon},
		{"lon=1", types.ErrCodeValidationQueryParams},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := &mockWeatherService{}
			rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/weather/locate?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tt.code), decodeErr(t, rec).Code)
			assert.Empty(t, svc.geocodeCalls)
		})
	}
}

func TestHandleLocate_GeocodeEmpty(t *testing.T) {
	svc := &mockWeatherService{geocodeErr: types.NewAppError(types.ErrCodeUpstreamGeocodeEmpty, "no place name", nil)}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/weather/locate?lat=0&lon=0")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(types.ErrCodeUpstreamGeocodeEmpty), decodeErr(t, rec).Code)
	assert.Empty(t, svc.timelineCalls)
}

// --- HandleReverseGeocode ---

func TestHandleReverseGeocode(t *testing.T) {
	svc := &mockWeatherService{cities: map[types.Coordinates]string{newYork: "New York"}}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/v1/geocode/reverse?lat=40.71&lon=-74.0")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, GeocodeResponse{City: "New York"}, decodeData[GeocodeResponse](t, rec))
	assert.Empty(t, svc.timelineCalls)
}

// --- HandlePage ---

func TestHandlePage_EmptyForm(t *testing.T) {
	svc := &mockWeatherService{}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.Contains(t, body, `placeholder="Search for a city..."`)
	assert.Contains(t, body, `class="day-background"`)
	assert.NotContains(t, body, "Todays Weather")
	assert.Empty(t, svc.timelineCalls)
}

func TestHandlePage_City(t *testing.T) {
	svc := &mockWeatherService{payloads: map[string]*types.ForecastPayload{"New York": sevenDays()}}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/?city=New+York")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Todays Weather in New York, NY, United States")
	assert.Contains(t, body, "Temperature: 72°F")
	assert.Equal(t, 6, strings.Count(body, "<h5>"))
	assert.Contains(t, body, `value="New York"`)
}

func TestHandlePage_Coordinates(t *testing.T) {
	svc := &mockWeatherService{
		cities:   map[types.Coordinates]string{newYork: "New York"},
		payloads: map[string]*types.ForecastPayload{"New York": sevenDays()},
	}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), "/?lat=40.71&lon=-74.0")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="New York"`)
	assert.Contains(t, rec.Body.String(), "Temperature: 72°F")
}

func TestHandlePage_ErrorsRenderIntoPage(t *testing.T) {
	tests := []struct {
		name    string
		svc     *mockWeatherService
		target  string
		status  int
		message string
	}{
		{"blank city", &mockWeatherService{}, "/?city=+", http.StatusBadRequest, "city must not be blank"},
		{"unknown city", &mockWeatherService{}, "/?city=Atlantis", http.StatusNotFound, "unknown city"},
		{"bad coords", &mockWeatherService{}, "/?lat=x&lon=1", http.StatusBadRequest, "lat must be a number"},
		{"generic failure", &mockWeatherService{weatherErr: errors.New("db down")}, "/?city=Oslo", http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, makeWeatherRouter(newTestWeatherHandler(tt.svc)), tt.target)
			assert.Equal(t, tt.status, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `role="alert"`)
			assert.Contains(t, body, tt.message)
			assert.Contains(t, body, `placeholder="Search for a city..."`, "search stays available after a failure")
		})
	}
}

func TestHandlePage_NightTheme(t *testing.T) {
	h := newTestWeatherHandler(&mockWeatherService{})
	h.now = func() time.Time { return time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC) }
	rec := serve(t, makeWeatherRouter(h), "/")
	assert.Contains(t, rec.Body.String(), `class="night-background"`)
}

func TestHandlePage_EscapesCity(t *testing.T) {
	svc := &mockWeatherService{}
	rec := serve(t, makeWeatherRouter(newTestWeatherHandler(svc)), `/?city=%3Cscript%3E`)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}
