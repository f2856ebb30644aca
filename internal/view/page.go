package view

import (
	"errors"
	"time"

	"skycast/internal/presenter"
	"skycast/internal/types"
)

// PageFor maps a state snapshot to what the front ends draw. The theme is
// the one fixed at mount; cards are labelled relative to now.
func PageFor(s State, now time.Time, opts presenter.Options) presenter.Page {
	page := presenter.Page{
		Theme:   presenter.ThemeNight,
		City:    s.City,
		Loading: s.Loading,
		Panel:   presenter.BuildPanel(s.Weather, now, opts),
	}
	if s.IsDayTime {
		page.Theme = presenter.ThemeDay
	}
	if s.LastError != nil {
		var appErr *types.AppError
		if errors.As(s.LastError, &appErr) {
			page.Error = appErr.Message
		} else {
			page.Error = s.LastError.Error()
		}
	}
	return page
}
