package device

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces publishes at a fixed interval. It wraps a token bucket with a
// burst of one, so the first publish goes out immediately and every later
// one waits its turn even when the loop falls behind.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacer emitting one slot per interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the next publish slot, or until the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("publish pacer wait: %w", err)
	}
	return nil
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
