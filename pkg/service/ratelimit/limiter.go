package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/utils/logging"
)

// Clock abstracts time for the limiter so tests can run deterministically
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

type classState struct {
	windowStart time.Time
	count       int
	nextAllowed time.Time
}

// Limiter throttles outbound calls per provider class. Two constraints hold
// at once: at most budget requests per window, and a fixed minimum delay
// between consecutive requests to the same class. The fixed delay is not a
// token-bucket burst allowance; it exists to keep the access pattern smooth
// so upstream providers do not flag it as abuse.
//
// Acquire never rejects a caller. Backpressure shows up as latency only; the
// sole error path is context cancellation. Constructed once per process and
// shared by reference across all adapters.
type Limiter struct {
	mu       sync.Mutex
	clock    Clock
	window   time.Duration
	budget   int
	minDelay time.Duration
	states   map[types.ProviderClass]*classState
	metrics  *metrics.Metrics
}

const (
	DefaultWindow   = time.Minute
	DefaultBudget   = 30
	DefaultMinDelay = 2 * time.Second
)

// Option is a functional option for Limiter configuration
type Option func(*Limiter)

// WithClock injects a clock, used by tests
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

// WithBudget sets the per-window request budget
func WithBudget(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.budget = n
		}
	}
}

// WithWindow sets the rolling window length
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithMinDelay sets the minimum inter-request delay
func WithMinDelay(d time.Duration) Option {
	return func(l *Limiter) {
		if d >= 0 {
			l.minDelay = d
		}
	}
}

// WithMetrics records throttle wait times
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// New creates a Limiter with the default budget of 30 requests per minute
// and a 2 second minimum delay per provider class.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		clock:    realClock{},
		window:   DefaultWindow,
		budget:   DefaultBudget,
		minDelay: DefaultMinDelay,
		states:   make(map[types.ProviderClass]*classState),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a request to the given provider class is permitted.
// Returns non-nil only when ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context, class types.ProviderClass) error {
	start := l.clock.Now()

	for {
		l.mu.Lock()
		now := l.clock.Now()
		st := l.states[class]
		if st == nil {
			st = &classState{windowStart: now}
			l.states[class] = st
		}

		if now.Sub(st.windowStart) >= l.window {
			st.windowStart = now
			st.count = 0
		}

		var wait time.Duration
		if now.Before(st.nextAllowed) {
			wait = st.nextAllowed.Sub(now)
		}
		if st.count >= l.budget {
			if windowWait := st.windowStart.Add(l.window).Sub(now); windowWait > wait {
				wait = windowWait
			}
		}

		if wait <= 0 {
			st.count++
			st.nextAllowed = now.Add(l.minDelay)
			l.mu.Unlock()

			if waited := l.clock.Now().Sub(start); waited > 0 {
				l.metrics.ObserveThrottleWait(class.String(), waited)
				if waited >= l.minDelay {
					logging.From(ctx).Debug("throttled outbound request",
						"provider", class.String(),
						"waited", waited.String())
				}
			}
			return nil
		}
		l.mu.Unlock()

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}
