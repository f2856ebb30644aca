// Package config defines the process configuration for skycast.
//
// Values are resolved once at start-up via a priority chain:
//
//	OS Environment (highest) -> .env file -> AWS SSM Parameter Store (lowest)
//
// The weather API key is the only secret. A missing key is a start-up error;
// the widget never runs with a silently disabled weather client.
package config

import (
	"time"

	"skycast/internal/types"
)

// SecretString aliases the redacting secret type used by the types package.
type SecretString = types.SecretString

// Config is the top-level configuration. It is populated once and never
// modified; components receive only the sub-struct they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"skycast"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Weather  WeatherConfig
	Geocode  GeocodeConfig
	Location LocationConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Display  DisplayConfig

	// Injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig configures the HTTP front end (cmd/api).
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// WeatherConfig configures the Visual Crossing timeline client. APIKey is the
// recognized {apiKey} option and is required.
type WeatherConfig struct {
	APIKey    SecretString `envconfig:"WEATHER_API_KEY"`
	BaseURL   string       `envconfig:"WEATHER_BASE_URL" default:"https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services" validate:"required,url"`
	UnitGroup string       `envconfig:"WEATHER_UNIT_GROUP" default:"us" validate:"oneof=us metric uk base"`
}

// GeocodeConfig configures the BigDataCloud reverse geocoding client.
type GeocodeConfig struct {
	BaseURL  string `envconfig:"GEOCODE_BASE_URL" default:"https://api.bigdatacloud.net/data" validate:"required,url"`
	Language string `envconfig:"GEOCODE_LANGUAGE" default:"en" validate:"required"`
}

// LocationConfig selects how the widget obtains device coordinates.
type LocationConfig struct {
	// Locator is one of "ip" (IP geolocation), "fixed" (HOME_LATITUDE and
	// HOME_LONGITUDE) or "none" (always unavailable; manual search only).
	Locator   string   `envconfig:"LOCATOR" default:"ip" validate:"oneof=ip fixed none"`
	IPBaseURL string   `envconfig:"IPGEO_BASE_URL" default:"http://ip-api.com" validate:"required,url"`
	Latitude  *float64 `envconfig:"HOME_LATITUDE" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `envconfig:"HOME_LONGITUDE" validate:"omitempty,gte=-180,lte=180"`
}

// UpstreamConfig tunes the resilient HTTP client shared by all outbound calls.
// The defaults give every call a timeout and a single retry on transient
// failure.
type UpstreamConfig struct {
	Timeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	MaxRetries int           `envconfig:"HTTP_MAX_RETRIES" default:"1" validate:"gte=0,lte=5"`
	MinWait    time.Duration `envconfig:"HTTP_RETRY_MIN_WAIT" default:"250ms"`
	MaxWait    time.Duration `envconfig:"HTTP_RETRY_MAX_WAIT" default:"2s"`
	UserAgent  string        `envconfig:"HTTP_USER_AGENT" default:"skycast/1.0"`
}

// CacheConfig configures the forecast cache. An empty RedisURL selects the
// in-process cache; a zero TTL disables caching.
type CacheConfig struct {
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	RedisURL SecretString  `envconfig:"REDIS_URL"`
}

// DisplayConfig controls presentation: the zone used for sunrise/sunset
// strings and the day/night theme.
type DisplayConfig struct {
	Timezone string `envconfig:"DISPLAY_TIMEZONE" default:"Local" validate:"required"`
}

// BuildInfo holds linker-injected build metadata.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Location resolves DisplayConfig.Timezone. "Local" maps to time.Local.
func (d DisplayConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingAPIKey means WEATHER_API_KEY resolved to nothing.
	ErrMissingAPIKey ConfigErrorType = "MISSING_API_KEY"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be converted.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
