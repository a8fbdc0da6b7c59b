package fetch

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a process-wide minimum delay between the starts of
// successive outbound requests. It is the only mutable state shared
// across hospital pipelines; callers block on Wait before each request.
//
// The mutex is held for the whole wait so that concurrent callers
// serialize: the start-to-start invariant holds across goroutines, not
// just within one.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate returns a Gate with the given minimum start-to-start interval.
// A non-positive interval disables the delay.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// NewGateWithClock injects a clock, for tests.
func NewGateWithClock(interval time.Duration, now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *Gate {
	return &Gate{interval: interval, now: now, sleep: sleep}
}

// Wait blocks until the next request is allowed to start, then records
// the start time. Returns early with the context error on cancellation
// without consuming a slot.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interval > 0 && !g.last.IsZero() {
		if remaining := g.interval - g.now().Sub(g.last); remaining > 0 {
			if err := g.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
