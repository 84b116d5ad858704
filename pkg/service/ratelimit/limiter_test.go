package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/service/ratelimit"
)

// fakeClock advances manually; Sleep jumps time forward so that waits
// complete instantly but remain observable.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *fakeClock) totalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.slept {
		total += d
	}
	return total
}

func TestLimiter_MinDelay(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithBudget(30),
		ratelimit.WithMinDelay(2*time.Second),
	)
	ctx := context.Background()

	gt.NoError(t, limiter.Acquire(ctx, types.ProviderWebIntel))
	first := clock.Now()

	gt.NoError(t, limiter.Acquire(ctx, types.ProviderWebIntel))
	second := clock.Now()

	// Second acquire must have waited at least the fixed delay even though
	// the window budget is untouched.
	gt.Number(t, int64(second.Sub(first))).GreaterOrEqual(int64(2 * time.Second))
}

func TestLimiter_IndependentClasses(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithMinDelay(2*time.Second),
	)
	ctx := context.Background()

	gt.NoError(t, limiter.Acquire(ctx, types.ProviderWebIntel))
	before := clock.Now()
	gt.NoError(t, limiter.Acquire(ctx, types.ProviderSanctions))

	// A different provider class has its own delay state.
	gt.Value(t, clock.Now()).Equal(before)
}

func TestLimiter_WindowBudget(t *testing.T) {
	const budget = 5
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithBudget(budget),
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithMinDelay(0),
	)
	ctx := context.Background()

	start := clock.Now()
	for i := 0; i < budget; i++ {
		gt.NoError(t, limiter.Acquire(ctx, types.ProviderBreach))
	}
	// Budget consumed without any waiting.
	gt.Value(t, clock.Now()).Equal(start)

	// The (N+1)th call blocks until the window resets; it is delayed,
	// never rejected.
	gt.NoError(t, limiter.Acquire(ctx, types.ProviderBreach))
	gt.Number(t, int64(clock.Now().Sub(start))).GreaterOrEqual(int64(time.Minute))
}

func TestLimiter_NeverRejects(t *testing.T) {
	const budget = 4
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithBudget(budget),
		ratelimit.WithWindow(time.Minute),
		ratelimit.WithMinDelay(0),
	)
	ctx := context.Background()

	// 2x the budget: every call eventually succeeds.
	for i := 0; i < 2*budget; i++ {
		gt.NoError(t, limiter.Acquire(ctx, types.ProviderWebIntel))
	}
	gt.Number(t, int64(clock.totalSlept())).GreaterOrEqual(int64(time.Minute))
}

func TestLimiter_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithMinDelay(2*time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	gt.NoError(t, limiter.Acquire(ctx, types.ProviderWebIntel))

	cancel()
	err := limiter.Acquire(ctx, types.ProviderWebIntel)
	gt.Error(t, err)
}

func TestLimiter_ConcurrentCallers(t *testing.T) {
	const budget = 10
	clock := newFakeClock()
	limiter := ratelimit.New(
		ratelimit.WithClock(clock),
		ratelimit.WithBudget(budget),
		ratelimit.WithMinDelay(0),
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2*budget; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gt.NoError(t, limiter.Acquire(ctx, types.ProviderDocAnalysis))
		}()
	}
	wg.Wait()
}
