package types

import "fmt"

// ForecastPayload is the timeline document returned by the weather service:
// current conditions plus an ordered multi-day outlook. It is replaced
// wholesale on every successful fetch.
type ForecastPayload struct {
	ResolvedAddress   string             `json:"resolvedAddress"`
	Description       string             `json:"description"`
	CurrentConditions *CurrentConditions `json:"currentConditions"`
	Days              []DayForecast      `json:"days"`
}

// CurrentConditions describes the observation at request time.
type CurrentConditions struct {
	Temp         float64 `json:"temp"`
	FeelsLike    float64 `json:"feelslike"`
	Conditions   string  `json:"conditions"`
	SunriseEpoch int64   `json:"sunriseEpoch"`
	SunsetEpoch  int64   `json:"sunsetEpoch"`
}

// DayForecast is one entry of the daily outlook. Datetime is an ISO date
// (YYYY-MM-DD) in the location's local calendar.
type DayForecast struct {
	Datetime   string  `json:"datetime"`
	Temp       float64 `json:"temp"`
	Conditions string  `json:"conditions"`
}

// Validate rejects payloads that would leave the view half-populated.
func (p *ForecastPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("forecast payload is nil")
	}
	if p.CurrentConditions == nil {
		return fmt.Errorf("forecast payload has no currentConditions")
	}
	if len(p.Days) == 0 {
		return fmt.Errorf("forecast payload has no days")
	}
	return nil
}

// Clone returns a deep copy so callers holding a snapshot never observe a
// later replacement.
func (p *ForecastPayload) Clone() *ForecastPayload {
	if p == nil {
		return nil
	}
	out := *p
	if p.CurrentConditions != nil {
		cc := *p.CurrentConditions
		out.CurrentConditions = &cc
	}
	if p.Days != nil {
		out.Days = make([]DayForecast, len(p.Days))
		copy(out.Days, p.Days)
	}
	return &out
}
