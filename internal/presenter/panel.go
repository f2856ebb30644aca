package presenter

import (
	"strconv"
	"time"

	"skycast/internal/types"
)

// Forecast strip window: days[FirstCardDay:LastCardDay]. Day 0 is today and
// is already shown by the current-conditions panel.
const (
	FirstCardDay = 1
	LastCardDay  = 7
)

// Card is one entry of the forecast strip.
type Card struct {
	Weekday     string `json:"weekday"`
	Date        string `json:"date"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
	Icon        *Icon  `json:"icon,omitempty"`
	Color       string `json:"color"`
}

// Panel is the complete, display-ready view of one forecast payload.
type Panel struct {
	Address     string `json:"address"`
	Description string `json:"description"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Condition   string `json:"condition"`
	Icon        *Icon  `json:"icon,omitempty"`
	Color       string `json:"color"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	Cards       []Card `json:"cards"`
}

// Options controls unit and clock rendering.
type Options struct {
	// UnitGroup is the weather service unit group: us, metric, uk or base.
	UnitGroup string
	// Location is used for sunrise/sunset strings.
	Location *time.Location
}

// UnitSymbol returns the temperature suffix for a unit group.
func UnitSymbol(unitGroup string) string {
	switch unitGroup {
	case "metric", "uk":
		return "°C"
	case "base":
		return "K"
	default:
		return "°F"
	}
}

// FormatTemp renders a temperature with the shortest exact decimal form,
// e.g. 72 -> "72°F", 71.4 -> "71.4°F".
func FormatTemp(v float64, unitGroup string) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + UnitSymbol(unitGroup)
}

func iconPtr(condition string) *Icon {
	if icon, ok := IconFor(condition); ok {
		return &icon
	}
	return nil
}

// ForecastCards builds the strip from days[1:7] (at most six cards). The card
// for days[i] is labelled WeekdayFor(now, i).
func ForecastCards(days []types.DayForecast, now time.Time, unitGroup string) []Card {
	if len(days) <= FirstCardDay {
		return []Card{}
	}
	end := min(len(days), LastCardDay)
	cards := make([]Card, 0, end-FirstCardDay)
	for i := FirstCardDay; i < end; i++ {
		d := days[i]
		cards = append(cards, Card{
			Weekday:     WeekdayFor(now, i),
			Date:        d.Datetime,
			Temperature: FormatTemp(d.Temp, unitGroup),
			Condition:   d.Conditions,
			Icon:        iconPtr(d.Conditions),
			Color:       ColorFor(d.Conditions),
		})
	}
	return cards
}

// BuildPanel maps a payload to its display model. It returns nil for a nil
// or incomplete payload.
func BuildPanel(p *types.ForecastPayload, now time.Time, opts Options) *Panel {
	if p == nil || p.CurrentConditions == nil {
		return nil
	}
	cc := p.CurrentConditions
	return &Panel{
		Address:     p.ResolvedAddress,
		Description: p.Description,
		Temperature: FormatTemp(cc.Temp, opts.UnitGroup),
		FeelsLike:   FormatTemp(cc.FeelsLike, opts.UnitGroup),
		Condition:   cc.Conditions,
		Icon:        iconPtr(cc.Conditions),
		Color:       ColorFor(cc.Conditions),
		Sunrise:     LocalTimeFor(cc.SunriseEpoch, opts.Location),
		Sunset:      LocalTimeFor(cc.SunsetEpoch, opts.Location),
		Cards:       ForecastCards(p.Days, now, opts.UnitGroup),
	}
}
