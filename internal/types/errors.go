package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and clients use these instead of literals.
const (
	// Validation (400)
	ErrCodeValidationEmptyCity   ErrorCode = "validation_empty_city"
	ErrCodeValidationInvalidLat  ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon  ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationQueryParams ErrorCode = "validation_invalid_query"

	// Geolocation (424): the platform could not supply coordinates.
	ErrCodeGeolocationDenied      ErrorCode = "geolocation_denied"
	ErrCodeGeolocationUnavailable ErrorCode = "geolocation_unavailable"
	ErrCodeGeolocationAttempted   ErrorCode = "geolocation_already_attempted"

	// Not Found (404)
	ErrCodeNotFoundCity ErrorCode = "not_found_city"

	// Upstream (502)
	ErrCodeUpstreamGeocode      ErrorCode = "upstream_geocode_failed"
	ErrCodeUpstreamGeocodeEmpty ErrorCode = "upstream_geocode_empty"
	ErrCodeUpstreamWeather      ErrorCode = "upstream_weather_failed"
	ErrCodeUpstreamGeoIP        ErrorCode = "upstream_geoip_failed"
	ErrCodeUpstreamUnavailable  ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited  ErrorCode = "upstream_rate_limited"

	// Configuration / Internal (500)
	ErrCodeConfigMissingAPIKey ErrorCode = "config_missing_api_key"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeInternalCache       ErrorCode = "internal_cache_error"
)

// HTTPStatus maps an ErrorCode to its HTTP status code.
// Unrecognized codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "geolocation_"):
		return http.StatusFailedDependency
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case s == string(ErrCodeUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Every failure that leaves
// a package boundary is expressed as an AppError so callers can branch on Code.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from the first AppError in err's chain.
// It returns the empty code when err carries no AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
