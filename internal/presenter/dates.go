package presenter

import "time"

// Day window for the background theme: [DayStartHour, DayEndHour).
const (
	DayStartHour = 6
	DayEndHour   = 18
)

// Theme names used as CSS classes.
const (
	ThemeDay   = "day-background"
	ThemeNight = "night-background"
)

// clockLayout renders "06:42 AM".
const clockLayout = "03:04 PM"

// WeekdayFor returns the weekday name of the UTC calendar date offset days
// after now's UTC date. Forecast cards are labelled from this offset, not
// from the record's own datetime.
func WeekdayFor(now time.Time, offset int) string {
	u := now.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day()+offset, 0, 0, 0, 0, time.UTC)
	return day.Weekday().String()
}

// LocalTimeFor formats Unix seconds as a 12-hour clock in loc.
// A nil loc means time.Local.
func LocalTimeFor(epochSeconds int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(epochSeconds, 0).In(loc).Format(clockLayout)
}

// IsDayTime reports whether now's hour, in now's own location, falls in the
// day window. It deliberately ignores the forecast location's timezone.
func IsDayTime(now time.Time) bool {
	h := now.Hour()
	return h >= DayStartHour && h < DayEndHour
}

// ThemeFor returns the background theme class for now.
func ThemeFor(now time.Time) string {
	if IsDayTime(now) {
		return ThemeDay
	}
	return ThemeNight
}
