package upstream

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates consecutive calls to a rate-limited provider.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer lets one call through immediately and then one per interval.
type IntervalPacer struct {
	limiter *rate.Limiter
}

func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	if interval <= 0 {
		return &IntervalPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &IntervalPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *IntervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NoPacer never waits.
type NoPacer struct{}

func (NoPacer) Wait(ctx context.Context) error { return ctx.Err() }
