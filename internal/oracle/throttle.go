package oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// #region throttle
// Throttle spaces consecutive oracle calls by a fixed courtesy delay.
// A nil Throttle or a zero delay never blocks.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle allowing one call per delay.
func NewThrottle(delay time.Duration) *Throttle {
	if delay <= 0 {
		return &Throttle{}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call may be issued or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return ctx.Err()
	}
	return t.limiter.Wait(ctx)
}

// #endregion throttle
