package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationEmptyCity,
		Message: "city name is empty",
	}

	expected := "validation_empty_city: city name is empty"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := NewAppError(ErrCodeUpstreamWeather, "weather lookup failed", underlying)

	if !errors.Is(appErr, underlying) {
		t.Errorf("errors.Is should find the underlying error")
	}
	if NewAppError(ErrCodeNotFoundCity, "no such city", nil).Unwrap() != nil {
		t.Errorf("Unwrap() should return nil when Err is nil")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("search failed: %w",
		NewAppError(ErrCodeGeolocationDenied, "location permission denied", nil))

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeGeolocationDenied {
		t.Errorf("extracted Code = %q, want %q", target.Code, ErrCodeGeolocationDenied)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationEmptyCity, http.StatusBadRequest},
		{ErrCodeValidationInvalidLat, http.StatusBadRequest},
		{ErrCodeValidationQueryParams, http.StatusBadRequest},
		{ErrCodeGeolocationDenied, http.StatusFailedDependency},
		{ErrCodeGeolocationAttempted, http.StatusFailedDependency},
		{ErrCodeNotFoundCity, http.StatusNotFound},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamUnavailable, http.StatusServiceUnavailable},
		{ErrCodeUpstreamWeather, http.StatusBadGateway},
		{ErrCodeUpstreamGeocodeEmpty, http.StatusBadGateway},
		{ErrCodeConfigMissingAPIKey, http.StatusInternalServerError},
		{ErrCodeInternalCache, http.StatusInternalServerError},
		{ErrorCode("something_new"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := NewAppError(tt.code, "x", nil).HTTPStatus(); got != tt.want {
				t.Errorf("AppError.HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetails(t *testing.T) {
	base := NewAppErrorWithDetails(ErrCodeValidationInvalidLat, "bad latitude", nil,
		map[string]any{"latitude": 91.0})

	merged := base.WithDetails(map[string]any{"source": "query"})

	if len(base.Details) != 1 {
		t.Errorf("WithDetails mutated the receiver: %v", base.Details)
	}
	if merged.Details["latitude"] != 91.0 || merged.Details["source"] != "query" {
		t.Errorf("merged details = %v", merged.Details)
	}
	if merged.Code != base.Code || merged.Message != base.Message {
		t.Errorf("WithDetails changed code or message")
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	appErr := NewAppError(ErrCodeUpstreamGeocode, "geocode failed", nil)
	wrapped := fmt.Errorf("locate: %w", appErr)

	if got := CodeOf(wrapped); got != ErrCodeUpstreamGeocode {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeUpstreamGeocode)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if !HasCode(wrapped, ErrCodeUpstreamGeocode) {
		t.Errorf("HasCode should match the wrapped code")
	}
	if HasCode(wrapped, ErrCodeUpstreamWeather) {
		t.Errorf("HasCode should not match a different code")
	}
	if HasCode(nil, "") {
		t.Errorf("HasCode(nil) should be false")
	}
}
