package scraper

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayPolicy is a uniformly jittered pause between Min and Max.
// The zero value never waits.
type DelayPolicy struct {
	Min time.Duration
	Max time.Duration
}

// Next returns the next delay.
func (p DelayPolicy) Next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int64N(int64(p.Max-p.Min)+1))
}

// Wait sleeps for Next() or until ctx is done.
func (p DelayPolicy) Wait(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
