package resilience

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter
// case. A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Pacer enforces a fixed delay after each call made through it. Unlike a
// token bucket it does not smooth bursts; it only spaces out one caller's
// sequential requests.
type Pacer struct {
	Delay time.Duration
}

// After runs fn and then sleeps for the pacer's delay whether fn failed or
// not. The sleep is cut short if ctx is done.
func (p Pacer) After(ctx context.Context, fn func() error) error {
	err := fn()
	_ = Sleep(ctx, p.Delay)
	return err
}
