// Package throttle paces connector API calls and pauses them after the
// remote service reports throttling.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Backoff bounds for throttled responses without a Retry-After hint.
const (
	MinBackoff = time.Second
	MaxBackoff = time.Minute
)

// Limits is a sustained request rate and the burst allowed above it.
// A non-positive rate means unlimited.
type Limits struct {
	PerSecond float64
	Burst     int
}

// Throttle is a token bucket plus a pause window. It is safe for
// concurrent use.
type Throttle struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	until   time.Time
	strikes int
}

// New returns a throttle for l.
func New(l Limits) *Throttle {
	limit := rate.Limit(l.PerSecond)
	if l.PerSecond <= 0 {
		limit = rate.Inf
	}
	burst := l.Burst
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until the pause window has passed and a token is available.
func (t *Throttle) Wait(ctx context.Context) error {
	if d := time.Until(t.pausedUntil()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.limiter.Wait(ctx)
}

// Allow reports whether a call may go out now, consuming a token if so.
func (t *Throttle) Allow() bool {
	if time.Now().Before(t.pausedUntil()) {
		return false
	}
	return t.limiter.Allow()
}

// Pause stops calls for retryAfter, or when that is zero, for a backoff
// that doubles with each throttled response since the last quiet period.
// It returns the pause applied.
func (t *Throttle) Pause(retryAfter time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if now.After(t.until.Add(MaxBackoff)) {
		t.strikes = 0
	}
	d := retryAfter
	if d <= 0 {
		d = MinBackoff << min(t.strikes, 6)
		d = min(d, MaxBackoff)
	}
	t.strikes++
	if until := now.Add(d); until.After(t.until) {
		t.until = until
	}
	return d
}

func (t *Throttle) pausedUntil() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.until
}
