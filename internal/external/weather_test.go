package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skycast/internal/types"
)

const timelineJSON = `{
  "resolvedAddress": "New York, NY, United States",
  "description": "Similar temperatures continuing with no rain expected.",
  "currentConditions": {"temp": 72, "feelslike": 70.5, "conditions": "Clear", "sunriseEpoch": 1700046000, "sunsetEpoch": 1700082000},
  "days": [
    {"datetime": "2023-11-15", "temp": 71, "conditions": "Clear"},
    {"datetime": "2023-11-16", "temp": 65, "conditions": "Rain"}
  ]
}`

func newWeather(t *testing.T, url string) *WeatherClient {
	t.Helper()
	c, err := NewWeatherClient(newTestBase(t, DefaultRetryPolicy()), url, "secret-key", "us")
	require.NoError(t, err)
	return c
}

func TestNewWeatherClient_RequiresAPIKey(t *testing.T) {
	_, err := NewWeatherClient(newTestBase(t, DefaultRetryPolicy()), "http://example", "", "us")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConfigMissingAPIKey, types.CodeOf(err))
}

func TestWeather_Timeline(t *testing.T) {
	var gotPath, gotKey, gotUnits string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotKey = r.URL.Query().Get("key")
		gotUnits = r.URL.Query().Get("unitGroup")
		_, _ = w.Write([]byte(timelineJSON))
	}))
	defer server.Close()

	payload, err := newWeather(t, server.URL).Timeline(context.Background(), "  New York ")
	require.NoError(t, err)

	assert.Equal(t, "/timeline/New%20York", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "us", gotUnits)

	assert.Equal(t, "New York, NY, United States", payload.ResolvedAddress)
	require.NotNil(t, payload.CurrentConditions)
	assert.Equal(t, 72.0, payload.CurrentConditions.Temp)
	assert.Equal(t, 70.5, payload.CurrentConditions.FeelsLike)
	assert.Equal(t, int64(1700046000), payload.CurrentConditions.SunriseEpoch)
	require.Len(t, payload.Days, 2)
	assert.Equal(t, "Rain", payload.Days[1].Conditions)
}

func TestWeather_EmptyCityIssuesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, err := newWeather(t, server.URL).Timeline(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationEmptyCity, types.CodeOf(err))
	assert.Zero(t, calls.Load())
}

func TestWeather_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   types.ErrorCode
	}{
		{"unknown location", http.StatusBadRequest, types.ErrCodeNotFoundCity},
		{"bad key", http.StatusUnauthorized, types.ErrCodeUpstreamWeather},
		{"server error", http.StatusInternalServerError, types.ErrCodeUpstreamWeather},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("Bad API Request"))
			}))
			defer server.Close()

			payload, err := newWeather(t, server.URL).Timeline(context.Background(), "Atlantis")
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.Equal(t, tt.want, types.CodeOf(err))
		})
	}
}

func TestWeather_IncompletePayloadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resolvedAddress":"X","days":[]}`))
	}))
	defer server.Close()

	payload, err := newWeather(t, server.URL).Timeline(context.Background(), "X")
	require.Error(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, types.ErrCodeUpstreamWeather, types.CodeOf(err))
}

func TestWeather_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newWeather(t, server.URL).Timeline(context.Background(), "X")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamWeather, types.CodeOf(err))
}

func TestWeather_APIKeyNotInErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newWeather(t, server.URL).Timeline(context.Background(), "X")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}
