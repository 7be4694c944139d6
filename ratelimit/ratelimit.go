// Package ratelimit keeps the fetcher inside the remote API's call quota.
// The guard probes the remaining allowance and blocks until the reset
// when it drops below a safety buffer.
package ratelimit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Quota is one observation of the remote rate-limit state.
type Quota struct {
	Remaining int
	Limit     int
	Reset     time.Time
}

// ProbeFunc queries the remote API for its current quota.
type ProbeFunc func(ctx context.Context) (Quota, error)

// Guard blocks callers when the remaining quota is too low to safely
// continue. It is invoked at repository-iteration granularity; file-level
// calls inside one repository ride on the same headroom.
type Guard struct {
	probe  ProbeFunc
	buffer int
	grace  time.Duration
	log    *logrus.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGuard builds a guard. buffer is the minimum remaining quota before
// the guard blocks until reset, and grace is added on top of the
// computed wait.
func NewGuard(probe ProbeFunc, buffer int, grace time.Duration, log *logrus.Logger) *Guard {
	return &Guard{
		probe:  probe,
		buffer: buffer,
		grace:  grace,
		log:    log,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Wait probes the remote quota and, when the remaining allowance is below
// the buffer, blocks until the advertised reset plus the grace period.
// The only effect is the blocking side effect.
func (g *Guard) Wait(ctx context.Context) error {
	q, err := g.probe(ctx)
	if err != nil {
		// A failed probe must not kill the run; the retry executor
		// handles the real call's failure if the quota truly is gone.
		g.log.WithError(err).Warn("rate limit probe failed")
		return nil
	}

	if q.Remaining >= g.buffer {
		return nil
	}

	wait := q.Reset.Sub(g.now())
	if wait <= 0 {
		return nil
	}

	g.log.WithFields(logrus.Fields{
		"remaining": q.Remaining,
		"limit":     q.Limit,
		"wait":      (wait + g.grace).Round(time.Second).String(),
	}).Warn("rate limit low, waiting for reset")

	return g.sleep(ctx, wait+g.grace)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
