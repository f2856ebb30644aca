// Package handlers contains the HTTP handler implementations for the skycast API.
//
// This file implements the weather endpoints:
//   - City forecast (GET /v1/weather?city=)
//   - Coordinates forecast (GET /v1/weather/locate?lat=&lon=)
//   - Reverse geocoding (GET /v1/geocode/reverse?lat=&lon=)
//   - Rendered widget page (GET /?city= or GET /?lat=&lon=)
package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"skycast/internal/core"
	"skycast/internal/forecasts"
	"skycast/internal/presenter"
	"skycast/internal/types"
)

// WeatherService is the pipeline contract the handler depends on.
// Defined locally so tests can substitute a fake.
type WeatherService interface {
	Timeline(ctx context.Context, city string) (*types.ForecastPayload, error)
	ReverseGeocode(ctx context.Context, coords types.Coordinates) (string, error)
	Locate(ctx context.Context, coords types.Coordinates) (*forecasts.Result, error)
}

// WeatherResponse is the JSON body for forecast lookups. Forecast is the raw
// timeline document; Panel is the same data mapped for display.
type WeatherResponse struct {
	City     string                 `json:"city"`
	Theme    string                 `json:"theme"`
	Forecast *types.ForecastPayload `json:"forecast"`
	Panel    *presenter.Panel       `json:"panel"`
}

// GeocodeResponse is the JSON body for reverse geocoding.
type GeocodeResponse struct {
	City string `json:"city"`
}

type cityQuery struct {
	City string `query:"city" validate:"city"`
}

type coordsQuery struct {
	Lat *float64 `query:"lat" validate:"required,latitude"`
	Lon *float64 `query:"lon" validate:"required,longitude"`
}

func (q coordsQuery) coordinates() types.Coordinates {
	return types.Coordinates{Latitude: *q.Lat, Longitude: *q.Lon}
}

// WeatherHandler maps HTTP requests to WeatherService calls and renders the
// results with the presenter.
type WeatherHandler struct {
	service   WeatherService
	validator *core.Validator
	display   presenter.Options
	logger    *slog.Logger
	now       func() time.Time
}

// NewWeatherHandler creates a WeatherHandler. display selects the unit group
// and the zone for sunrise, sunset and the day/night theme.
func NewWeatherHandler(
	svc WeatherService,
	val *core.Validator,
	display presenter.Options,
	logger *slog.Logger,
) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{
		service:   svc,
		validator: val,
		display:   display,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the JSON endpoints onto the /v1 router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.HandleGetWeather)
	r.Get("/weather/locate", h.HandleLocate)
	r.Get("/geocode/reverse", h.HandleReverseGeocode)
}

// RegisterPage mounts the rendered widget page at the root.
func (h *WeatherHandler) RegisterPage(r chi.Router) {
	r.Get("/", h.HandlePage)
}

// HandleGetWeather handles GET /v1/weather?city=.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	q := cityQuery{City: r.URL.Query().Get("city")}
	if err := h.validator.ValidateStruct(q); err != nil {
		core.Error(w, r, err)
		return
	}

	payload, err := h.service.Timeline(r.Context(), q.City)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, h.weatherResponse(q.City, payload))
}

// HandleLocate handles GET /v1/weather/locate?lat=&lon=: reverse geocode the
// coordinates, then fetch the forecast for the resolved city.
func (h *WeatherHandler) HandleLocate(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseCoords(r.URL.Query())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	res, err := h.service.Locate(r.Context(), q.coordinates())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, h.weatherResponse(res.City, res.Payload))
}

// HandleReverseGeocode handles GET /v1/geocode/reverse?lat=&lon=.
func (h *WeatherHandler) HandleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseCoords(r.URL.Query())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	city, err := h.service.ReverseGeocode(r.Context(), q.coordinates())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, GeocodeResponse{City: city})
}

// HandlePage handles GET /. With ?city= it searches, with ?lat=&lon= it
// locates, and with neither it renders the empty search form. Failures are
// rendered into the page with the error's status code; the search form is
// always usable.
func (h *WeatherHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	now := h.localNow()
	page := presenter.Page{Theme: presenter.ThemeFor(now)}
	status := http.StatusOK

	values := r.URL.Query()
	var err error
	switch {
	case values.Has("city"):
		page.City = values.Get("city")
		err = h.pageForCity(r.Context(), &page, now)
	case values.Has("lat") || values.Has("lon"):
		err = h.pageForCoords(r.Context(), values, &page, now)
	}
	if err != nil {
		status = http.StatusInternalServerError
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			status = appErr.HTTPStatus()
			page.Error = appErr.Message
		} else {
			page.Error = "Something went wrong. Please try again."
		}
		types.LoggerFromContext(r.Context(), h.logger).WarnContext(r.Context(), "widget page lookup failed",
			"city", page.City, "error", err)
	}

	var buf bytes.Buffer
	if err := presenter.RenderHTML(&buf, page); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render page", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *WeatherHandler) pageForCity(ctx context.Context, page *presenter.Page, now time.Time) error {
	if err := h.validator.ValidateStruct(cityQuery{City: page.City}); err != nil {
		return err
	}
	payload, err := h.service.Timeline(ctx, page.City)
	if err != nil {
		return err
	}
	page.Panel = presenter.BuildPanel(payload, now, h.display)
	return nil
}

func (h *WeatherHandler) pageForCoords(ctx context.Context, values url.Values, page *presenter.Page, now time.Time) error {
	q, err := h.parseCoords(values)
	if err != nil {
		return err
	}
	res, err := h.service.Locate(ctx, q.coordinates())
	if err != nil {
		return err
	}
	page.City = res.City
	page.Panel = presenter.BuildPanel(res.Payload, now, h.display)
	return nil
}

func (h *WeatherHandler) weatherResponse(city string, payload *types.ForecastPayload) WeatherResponse {
	now := h.localNow()
	return WeatherResponse{
		City:     city,
		Theme:    presenter.ThemeFor(now),
		Forecast: payload,
		Panel:    presenter.BuildPanel(payload, now, h.display),
	}
}

func (h *WeatherHandler) localNow() time.Time {
	now := h.now()
	if h.display.Location != nil {
		now = now.In(h.display.Location)
	}
	return now
}

// parseCoords reads lat and lon as numbers and validates their ranges.
// Missing values are left nil for the validator to report.
func (h *WeatherHandler) parseCoords(values url.Values) (coordsQuery, error) {
	var q coordsQuery
	if s := values.Get("lat"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, types.NewAppError(types.ErrCodeValidationInvalidLat, "lat must be a number", err)
		}
		q.Lat = &v
	}
	if s := values.Get("lon"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, types.NewAppError(types.ErrCodeValidationInvalidLon, "lon must be a number", err)
		}
		q.Lon = &v
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		return q, err
	}
	return q, nil
}
