package view

import (
	"strings"

	"skycast/internal/types"
)

// Reduce returns the state that follows s after ev. It never mutates s and
// performs no I/O. Events that do not apply to the current phase, and weather
// results for a superseded generation, leave the state unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Mounted:
		if s.AutoFetched {
			return s
		}
		s.AutoFetched = true
		s.IsDayTime = e.IsDayTime
		if e.SkipLocate || s.Phase != PhaseInit {
			return s
		}
		s.Phase = PhaseLocating
		s.Loading = true

	case LocateSucceeded:
		if s.Phase != PhaseLocating {
			return s
		}
		s.Phase = PhaseGeocoding

	case LocateFailed:
		if s.Phase != PhaseLocating {
			return s
		}
		s.Phase = PhaseManualEntry
		s.Loading = false
		s.LastError = e.Err

	case CityResolved:
		if s.Phase != PhaseGeocoding {
			return s
		}
		city := strings.TrimSpace(e.City)
		if city == "" {
			s.Phase = PhaseManualEntry
			s.Loading = false
			s.LastError = types.NewAppError(types.ErrCodeUpstreamGeocodeEmpty, "reverse geocoder returned no place name", nil)
			return s
		}
		s = issueFetch(s, city)

	case GeocodeFailed:
		if s.Phase != PhaseGeocoding {
			return s
		}
		s.Phase = PhaseManualEntry
		s.Loading = false
		s.LastError = e.Err

	case CityEdited:
		s.City = e.City

	case SearchSubmitted:
		city, err := types.NormalizeCity(e.City)
		if err != nil {
			s.LastError = err
			return s
		}
		s = issueFetch(s, city)

	case WeatherLoaded:
		if e.Generation != s.Generation || s.Phase != PhaseFetchingWeather {
			return s
		}
		if e.Payload != nil {
			s.Weather = e.Payload
		}
		s.Phase = PhaseReady
		s.Loading = false
		s.LastError = nil

	case WeatherFailed:
		if e.Generation != s.Generation || s.Phase != PhaseFetchingWeather {
			return s
		}
		s.Phase = PhaseReady
		s.Loading = false
		s.LastError = e.Err
	}
	return s
}

// issueFetch starts a new generation. Loading only covers the first fetch;
// a refresh keeps the last good forecast on screen.
func issueFetch(s State, city string) State {
	s.Phase = PhaseFetchingWeather
	s.City = city
	s.Loading = s.Weather == nil
	s.LastError = nil
	s.Generation++
	return s
}
