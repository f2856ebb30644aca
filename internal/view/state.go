// Package view holds the widget's explicit state machine.
//
// State transitions are computed by the pure Reduce function; the Controller
// performs the effects (locating, geocoding, fetching weather) and feeds their
// outcomes back in as events. Every weather fetch is tagged with the
// generation issued when it started, and only the response carrying the
// current generation may write into state.
package view

import "skycast/internal/types"

// Phase is the controller's position in the lookup pipeline.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLocating
	PhaseGeocoding
	PhaseFetchingWeather
	PhaseManualEntry
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseLocating:
		return "locating"
	case PhaseGeocoding:
		return "geocoding"
	case PhaseFetchingWeather:
		return "fetching_weather"
	case PhaseManualEntry:
		return "manual_entry"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is a value type. Weather is shared between copies and must be
// treated as read-only.
type State struct {
	Phase       Phase
	City        string
	Weather     *types.ForecastPayload
	Loading     bool
	IsDayTime   bool
	// AutoFetched is set by the first Mounted; the session gets one
	// auto-locate chance.
	AutoFetched bool
	// Generation is bumped each time a weather fetch is issued.
	Generation uint64
	LastError  error
}

// Initial is the state before the first render. The loading indicator is
// shown until the first fetch resolves or the auto-locate path gives up.
func Initial() State {
	return State{Phase: PhaseInit, Loading: true}
}

// HasData reports whether a forecast has been loaded.
func (s State) HasData() bool {
	return s.Weather != nil
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// Mounted is dispatched on first render. SkipLocate fixes the theme without
// starting the auto-locate path.
type Mounted struct {
	IsDayTime  bool
	SkipLocate bool
}

// LocateSucceeded carries device coordinates.
type LocateSucceeded struct {
	Coordinates types.Coordinates
}

// LocateFailed records a denied or unavailable geolocation.
type LocateFailed struct {
	Err error
}

// CityResolved carries the reverse-geocoded city name.
type CityResolved struct {
	City string
}

// GeocodeFailed records a failed reverse geocode. No default city is used.
type GeocodeFailed struct {
	Err error
}

// CityEdited mirrors the search field contents without submitting.
type CityEdited struct {
	City string
}

// SearchSubmitted is a manual search.
type SearchSubmitted struct {
	City string
}

// WeatherLoaded is a successful fetch for Generation.
type WeatherLoaded struct {
	Generation uint64
	Payload    *types.ForecastPayload
}

// WeatherFailed is a failed fetch for Generation.
type WeatherFailed struct {
	Generation uint64
	Err        error
}

func (Mounted) event()         {}
func (LocateSucceeded) event() {}
func (LocateFailed) event()    {}
func (CityResolved) event()    {}
func (GeocodeFailed) event()   {}
func (CityEdited) event()      {}
func (SearchSubmitted) event() {}
func (WeatherLoaded) event()   {}
func (WeatherFailed) event()   {}
