package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates successive calls to a minimum interval. It is a strict
// sequential wait with a burst of one: the first call proceeds immediately,
// every later call waits out the remainder of the interval. Used to honor
// the geocoding service's one-request-per-second policy, which has no
// documented burst tolerance.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given minimum spacing between calls.
func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Wait blocks until the interval since the previous call has elapsed, or the
// context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
