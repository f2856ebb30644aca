// Package external is the anti-corruption layer between skycast and the
// third-party services it consumes: BigDataCloud reverse geocoding, the
// Visual Crossing timeline API and ip-api.com geolocation. Every outbound call
// goes through BaseClient, which adds the request timeout, a bounded retry
// with backoff, a circuit breaker and error mapping to types.AppError.
package external

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"skycast/internal/types"
)

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy allows one retry on a transient failure.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// Observer receives one observation per logical upstream call (after retries).
type Observer interface {
	ObserveUpstream(upstream, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, string, time.Duration) {}

// BaseClient wraps an *http.Client with a circuit breaker and retry policy.
// Vendor clients hold a BaseClient and only deal with URLs and payloads.
type BaseClient struct {
	name        string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	observer    Observer
	sleepFn     func(ctx context.Context, d time.Duration) error
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the wait between retries. Tests use it to avoid
// real delays.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) BaseClientOption {
	return func(c *BaseClient) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBaseClient creates a BaseClient named after the upstream it talks to.
// The name labels the breaker, metrics and health probe.
func NewBaseClient(
	httpClient *http.Client,
	name string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	bc := &BaseClient{
		name:        name,
		client:      httpClient,
		breaker:     NewBreaker(name),
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		observer:    noopObserver{},
		sleepFn:     sleepContext,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// NewBreaker returns the breaker settings used for every upstream: open after
// more than five consecutive failures, probe again after 30s.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// Name returns the upstream name.
func (c *BaseClient) Name() string {
	return c.name
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *BaseClient) BreakerState() string {
	return c.breaker.State().String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do executes a GET-style request (no body replay) with:
//   - X-Request-ID propagation from the context
//   - User-Agent injection
//   - circuit breaking
//   - retry on network errors, 429 and 5xx, honoring Retry-After
//
// Any other response, including 4xx, is returned as-is and the caller must
// close its body. Exhausted retries, an open breaker or a cancelled context
// yield a *types.AppError.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if id := types.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	var (
		lastResp *http.Response
		lastErr  error
	)

	attempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("%s returned %d", c.name, r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			c.observer.ObserveUpstream(c.name, outcomeFor(resp.StatusCode), time.Since(start))
			return resp, nil
		}

		lastErr = err
		if lastResp != nil {
			lastResp.Body.Close()
		}
		lastResp = resp

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts-1 {
			if sleepErr := c.sleepFn(ctx, c.computeBackoff(attempt, resp)); sleepErr != nil {
				lastErr = sleepErr
				break
			}
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}
	appErr := c.mapError(ctx, lastResp, lastErr)
	c.observer.ObserveUpstream(c.name, string(appErr.Code), time.Since(start))
	return nil, appErr
}

func outcomeFor(status int) string {
	if status >= 200 && status < 300 {
		return "ok"
	}
	return strconv.Itoa(status)
}

// computeBackoff prefers Retry-After, otherwise uses exponential backoff with
// jitter clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(ra); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))
	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

func (c *BaseClient) mapError(ctx context.Context, resp *http.Response, err error) *types.AppError {
	details := map[string]any{"upstream": c.name}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; upstream temporarily disabled", err, details)
	case ctx.Err() != nil:
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
			"request cancelled or timed out", ctx.Err(), details)
	}

	if resp != nil {
		details["status"] = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests {
			return types.NewAppErrorWithDetails(types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded", err, details)
		}
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d after retries", resp.StatusCode), err, details)
	}

	return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
		"upstream request failed", err, details)
}
