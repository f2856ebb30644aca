// Package geolocation obtains device coordinates once per session.
//
// A Resolver wraps a types.Locator with a one-shot guard: the first Resolve
// consults the locator, every later call returns ErrAlreadyAttempted without
// touching it. Failures are never retried automatically; the caller falls
// back to manual city entry.
package geolocation

import (
	"context"
	"log/slog"
	"sync"

	"skycast/internal/types"
)

// ErrAlreadyAttempted is returned by Resolve after the first call.
var ErrAlreadyAttempted = types.NewAppError(types.ErrCodeGeolocationAttempted, "geolocation was already attempted this session", nil)

// Resolver performs at most one location lookup.
type Resolver struct {
	locator types.Locator
	logger  *slog.Logger

	mu        sync.Mutex
	attempted bool
}

// NewResolver creates a Resolver around locator.
func NewResolver(locator types.Locator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{locator: locator, logger: logger}
}

// Attempted reports whether Resolve has already run.
func (r *Resolver) Attempted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempted
}

// Resolve returns the device coordinates. The attempted flag is set before
// the locator runs, so concurrent callers cannot trigger a second lookup.
func (r *Resolver) Resolve(ctx context.Context) (types.Coordinates, error) {
	r.mu.Lock()
	if r.attempted {
		r.mu.Unlock()
		return types.Coordinates{}, ErrAlreadyAttempted
	}
	r.attempted = true
	r.mu.Unlock()

	if r.locator == nil {
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "no geolocation capability configured", nil)
	}

	coords, err := r.locator.Locate(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "geolocation failed; waiting for manual entry", "error", err)
		return types.Coordinates{}, err
	}
	if err := types.ValidateCoordinates(coords); err != nil {
		r.logger.WarnContext(ctx, "geolocation returned invalid coordinates", "error", err)
		return types.Coordinates{}, types.NewAppError(types.ErrCodeGeolocationUnavailable, "locator returned invalid coordinates", err)
	}

	r.logger.DebugContext(ctx, "geolocation succeeded", "coordinates", coords.String())
	return coords, nil
}
