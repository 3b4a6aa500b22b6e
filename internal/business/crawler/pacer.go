package crawler

import (
	"context"
	"math/rand"
	"time"
)

// Pacer enforces the mandatory randomized delay between listing fetches.
// The jitter window is tuned to the sources' tolerance; removing it for
// throughput gets the crawler blocked.
type Pacer struct {
	min time.Duration
	max time.Duration
}

func NewPacer(min, max time.Duration) *Pacer {
	if min <= 0 {
		min = time.Second
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

// Next returns a randomized delay within the configured window.
func (p *Pacer) Next() time.Duration {
	if p.max == p.min {
		return p.min
	}
	return p.min + time.Duration(rand.Int63n(int64(p.max-p.min)))
}

// Wait sleeps for a jittered interval, returning early with the context
// error when the run is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Next())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
