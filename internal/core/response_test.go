package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"skycast/internal/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestJSON_WritesBodyAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]int{"n": 1})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != `{"n":1}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestJSON_MarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"ch": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code = %s", got)
	}
}

func TestData_WrapsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, httptest.NewRequest(http.MethodGet, "/", nil), "ok")
	if rec.Body.String() != `{"data":"ok"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestError_StatusByCode(t *testing.T) {
	tests := []struct {
		code   types.ErrorCode
		status int
	}{
		{types.ErrCodeValidationEmptyCity, http.StatusBadRequest},
		{types.ErrCodeValidationInvalidLat, http.StatusBadRequest},
		{types.ErrCodeGeolocationDenied, http.StatusFailedDependency},
		{types.ErrCodeNotFoundCity, http.StatusNotFound},
		{types.ErrCodeUpstreamWeather, http.StatusBadGateway},
		{types.ErrCodeUpstreamGeocodeEmpty, http.StatusBadGateway},
		{types.ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{types.ErrCodeUpstreamUnavailable, http.StatusServiceUnavailable},
		{types.ErrCodeConfigMissingAPIKey, http.StatusInternalServerError},
		{types.ErrCodeInternalCache, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(types.WithRequestID(req.Context(), "rid"))
			rec := httptest.NewRecorder()

			Error(rec, req, types.NewAppError(tt.code, "msg", errors.New("internal cause")))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			d := decodeError(t, rec)
			if d.Code != string(tt.code) || d.Message != "msg" || d.RequestID != "rid" {
				t.Errorf("detail = %+v", d)
			}
		})
	}
}

func TestError_WrappedAppErrorKeepsDetails(t *testing.T) {
	appErr := types.NewAppErrorWithDetails(types.ErrCodeNotFoundCity, "unknown city", nil, map[string]any{"city": "Atlantis"})
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("handler: %w", appErr))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if d := decodeError(t, rec); d.Details["city"] != "Atlantis" {
		t.Errorf("details = %v", d.Details)
	}
}

func TestError_GenericErrorHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("db password is hunter2"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	d := decodeError(t, rec)
	if d.Message != "an unexpected error occurred" {
		t.Errorf("internal message leaked: %q", d.Message)
	}
}
