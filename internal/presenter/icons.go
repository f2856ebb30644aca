// Package presenter holds the pure mapping from forecast data to what the
// widget displays: condition icons and colors, weekday labels, clock strings
// and the day/night theme. Nothing here performs I/O or reads the clock; the
// caller supplies "now".
package presenter

// Condition strings as reported by the weather service.
const (
	ConditionClear           = "Clear"
	ConditionPartiallyCloudy = "Partially cloudy"
	ConditionCloudy          = "Cloudy"
	ConditionRain            = "Rain"
	ConditionSnow            = "Snow"
	ConditionFog             = "Fog"
)

// Icon colors. DefaultColor is used for every unmapped condition.
const (
	ColorClear           = "#FEE715"
	ColorPartiallyCloudy = "#B0C4DE"
	ColorCloudy          = "#808080"
	ColorRain            = "#4682B4"
	ColorSnow            = "#FFFFFF"
	ColorFog             = "#D3D3D3"
	DefaultColor         = "#000000"
)

// Icon identifies a condition glyph. Name is the Font Awesome solid icon
// name used by the HTML page; Glyph is the terminal rendering.
type Icon struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

var icons = map[string]Icon{
	ConditionClear:           {Name: "sun", Glyph: "☀"},
	ConditionPartiallyCloudy: {Name: "cloud-sun", Glyph: "⛅"},
	ConditionCloudy:          {Name: "cloud", Glyph: "☁"},
	ConditionRain:            {Name: "cloud-rain", Glyph: "🌧"},
	ConditionSnow:            {Name: "snowflake", Glyph: "❄"},
	ConditionFog:             {Name: "smog", Glyph: "🌫"},
}

var colors = map[string]string{
	ConditionClear:           ColorClear,
	ConditionPartiallyCloudy: ColorPartiallyCloudy,
	ConditionCloudy:          ColorCloudy,
	ConditionRain:            ColorRain,
	ConditionSnow:            ColorSnow,
	ConditionFog:             ColorFog,
}

// IconFor returns the icon for condition. Matching is exact; any other
// string, including combined conditions like "Rain, Overcast", has no icon.
func IconFor(condition string) (Icon, bool) {
	icon, ok := icons[condition]
	return icon, ok
}

// ColorFor returns the icon color for condition, DefaultColor when unmapped.
func ColorFor(condition string) string {
	if c, ok := colors[condition]; ok {
		return c
	}
	return DefaultColor
}
