package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skycast/internal/geolocation"
	"skycast/internal/presenter"
	"skycast/internal/types"
)

// Listener receives a copy of the state after every change.
type Listener func(State)

// Controller owns the widget state and runs the effects the reducer asks
// for. All methods are safe for concurrent use.
type Controller struct {
	resolver *geolocation.Resolver
	geocoder types.ReverseGeocoder
	weather  types.WeatherProvider
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	inflight  context.CancelFunc
	listeners map[int]Listener
	nextID    int
	seq       uint64

	// notifyMu serializes listener delivery; delivered is the seq of the
	// newest state handed out.
	notifyMu  sync.Mutex
	delivered uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock overrides time.Now for the day/night computation.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController wires the pipeline collaborators.
func NewController(resolver *geolocation.Resolver, geocoder types.ReverseGeocoder, weather types.WeatherProvider, logger *slog.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		resolver:  resolver,
		geocoder:  geocoder,
		weather:   weather,
		logger:    logger,
		now:       time.Now,
		state:     Initial(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers l and returns a function that removes it. Listeners
// run on the goroutine that caused the change, one at a time and in state
// order; a state older than one already delivered is skipped. A listener
// must not block or dispatch events.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Dispatch applies ev and notifies listeners if the state changed.
func (c *Controller) Dispatch(ev Event) State {
	_, next, _ := c.apply(ev, nil)
	return next
}

// apply reduces ev under the lock. If the event issued a new generation,
// any in-flight fetch is cancelled and cancel (when non-nil) becomes the
// new in-flight handle.
func (c *Controller) apply(ev Event, cancel context.CancelFunc) (prev, next State, issued bool) {
	c.mu.Lock()
	prev = c.state
	next = Reduce(prev, ev)
	issued = next.Generation != prev.Generation
	if issued {
		if c.inflight != nil {
			c.inflight()
		}
		c.inflight = cancel
	}
	c.state = next
	var (
		ls  []Listener
		seq uint64
	)
	if !sameState(prev, next) {
		c.seq++
		seq = c.seq
		ls = make([]Listener, 0, len(c.listeners))
		for _, l := range c.listeners {
			ls = append(ls, l)
		}
	}
	c.mu.Unlock()

	if len(ls) > 0 {
		c.notify(seq, next, ls)
	}
	return prev, next, issued
}

// notify delivers st unless a newer state already went out.
func (c *Controller) notify(seq uint64, st State, ls []Listener) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	for _, l := range ls {
		l(st)
	}
}

// Mount runs the auto-locate pipeline. It does nothing after the first
// call. Failures are logged and leave the controller waiting for a manual
// search; the returned error is informational.
func (c *Controller) Mount(ctx context.Context) error {
	prev, next, _ := c.apply(Mounted{IsDayTime: presenter.IsDayTime(c.now())}, nil)
	if prev.AutoFetched || next.Phase != PhaseLocating {
		return nil
	}

	coords, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "auto-locate failed", "error", err)
		c.Dispatch(LocateFailed{Err: err})
		return err
	}
	if st := c.Dispatch(LocateSucceeded{Coordinates: coords}); st.Phase != PhaseGeocoding {
		return nil
	}

	city, err := c.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		c.logger.WarnContext(ctx, "reverse geocode failed", "coordinates", coords.String(), "error", err)
		c.Dispatch(GeocodeFailed{Err: err})
		return err
	}
	return c.fetch(ctx, CityResolved{City: city})
}

// MountWithoutLocate fixes the day/night theme like Mount but never
// locates. Sessions that start from a known city use it before Search.
func (c *Controller) MountWithoutLocate() {
	c.apply(Mounted{IsDayTime: presenter.IsDayTime(c.now()), SkipLocate: true}, nil)
}

// Search submits a manual search. An empty city is rejected without any
// network call.
func (c *Controller) Search(ctx context.Context, city string) error {
	if _, err := types.NormalizeCity(city); err != nil {
		c.logger.WarnContext(ctx, "search rejected", "error", err)
		c.Dispatch(SearchSubmitted{City: city})
		return err
	}
	return c.fetch(ctx, SearchSubmitted{City: city})
}

// fetch dispatches ev and, if it issued a generation, fetches the weather
// for the resulting city and dispatches the outcome.
func (c *Controller) fetch(ctx context.Context, ev Event) error {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_, st, issued := c.apply(ev, cancel)
	if !issued {
		return nil
	}
	gen, city := st.Generation, st.City

	payload, err := c.weather.Timeline(fctx, city)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			c.logger.DebugContext(ctx, "weather fetch superseded", "city", city, "generation", gen)
		} else {
			c.logger.ErrorContext(ctx, "weather fetch failed", "city", city, "generation", gen, "error", err)
		}
		c.complete(gen, WeatherFailed{Generation: gen, Err: err})
		return err
	}

	if st := c.complete(gen, WeatherLoaded{Generation: gen, Payload: payload}); st.Generation != gen {
		c.logger.DebugContext(ctx, "discarding stale weather response", "city", city, "generation", gen, "current", st.Generation)
	}
	return nil
}

func (c *Controller) complete(gen uint64, ev Event) State {
	st := c.Dispatch(ev)
	c.mu.Lock()
	if c.state.Generation == gen {
		c.inflight = nil
	}
	c.mu.Unlock()
	return st
}

func sameState(a, b State) bool {
	return a.Phase == b.Phase &&
		a.City == b.City &&
		a.Weather == b.Weather &&
		a.Loading == b.Loading &&
		a.IsDayTime == b.IsDayTime &&
		a.AutoFetched == b.AutoFetched &&
		a.Generation == b.Generation &&
		errors.Is(a.LastError, b.LastError) && errors.Is(b.LastError, a.LastError)
}
