package httputil

import (
	"context"
	"sync"
	"time"
)

// Limit is a sliding-window admission budget: at most MaxRequests within
// any trailing Interval.
type Limit struct {
	MaxRequests int           `toml:"max_requests"`
	Interval    time.Duration `toml:"interval"`
}

// PerSecond returns a Limit of n requests per second.
func PerSecond(n int) Limit {
	return Limit{MaxRequests: n, Interval: time.Second}
}

// DefaultLimit applies to sources without an explicit entry.
var DefaultLimit = PerSecond(5)

// Limiter is a sliding-window rate limiter. Admissions are recorded as
// timestamps; timestamps older than the interval are pruned on every call.
// A Limiter never drops a request: callers block until the window has room.
//
// Limiter is safe for concurrent use.
type Limiter struct {
	limit Limit

	mu     sync.Mutex
	window []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a Limiter for limit. A non-positive MaxRequests or
// Interval disables limiting.
func NewLimiter(limit Limit) *Limiter {
	return &Limiter{
		limit: limit,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Limit returns the configured budget.
func (l *Limiter) Limit() Limit { return l.limit }

// Wait suspends until an admission is allowed and then records it.
// It loops rather than sleeping once, because another caller may take the
// freed slot while this one sleeps. Returns ctx.Err() if cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limit.MaxRequests <= 0 || l.limit.Interval <= 0 {
		return nil
	}
	for {
		wait, ok := l.tryAdmit()
		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit prunes the window and records an admission if there is room.
// Otherwise it returns how long until the oldest admission expires.
func (l *Limiter) tryAdmit() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.limit.Interval)
	i := 0
	for i < len(l.window) && !l.window[i].After(cutoff) {
		i++
	}
	l.window = l.window[i:]

	if len(l.window) < l.limit.MaxRequests {
		l.window = append(l.window, now)
		return 0, true
	}
	return l.limit.Interval - now.Sub(l.window[0]), false
}

// InFlight returns the number of admissions in the current window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.limit.Interval)
	n := 0
	for _, ts := range l.window {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RateLimits owns one Limiter per source id. Limiters are created lazily from
// the configured per-source limits, falling back to [DefaultLimit].
//
// A RateLimits is injected into every source client; sharing one instance
// across clients and invocations is what enforces the per-source budget.
type RateLimits struct {
	mu       sync.Mutex
	limits   map[string]Limit
	limiters map[string]*Limiter
}

// NewRateLimits creates a registry with the given per-source limits.
func NewRateLimits(limits map[string]Limit) *RateLimits {
	cp := make(map[string]Limit, len(limits))
	for k, v := range limits {
		cp[k] = v
	}
	return &RateLimits{limits: cp, limiters: make(map[string]*Limiter)}
}

// For returns the limiter for source, creating it on first use.
func (r *RateLimits) For(source string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[source]; ok {
		return l
	}
	limit, ok := r.limits[source]
	if !ok {
		limit = DefaultLimit
	}
	l := NewLimiter(limit)
	r.limiters[source] = l
	return l
}

// Wait blocks until source admits one more request.
func (r *RateLimits) Wait(ctx context.Context, source string) error {
	return r.For(source).Wait(ctx)
}
