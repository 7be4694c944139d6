// Package retry wraps a single remote operation with classification-based
// retries. Operations report a tagged Result instead of a bare error so
// the policy can dispatch on the failure class directly.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrExhausted is returned once all retry attempts are consumed. It is
// fatal for the wrapped operation, not for the whole run.
var ErrExhausted = errors.New("all retry attempts failed")

// Status classifies the outcome of one attempt.
type Status int

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = iota
	// StatusRateLimited means the call quota is exhausted. The executor
	// delegates to the quota waiter and retries without consuming an
	// attempt.
	StatusRateLimited
	// StatusForbidden covers forbidden/abuse-detection responses. The
	// executor backs off exponentially and consumes an attempt.
	StatusForbidden
	// StatusTransient covers every other recoverable failure, retried
	// with backoff up to the attempt cap.
	StatusTransient
	// StatusFatal aborts immediately without retrying.
	StatusFatal
)

// Result is the tagged outcome of one attempt of the wrapped operation.
type Result struct {
	Status Status
	Err    error
}

// OK is the successful result.
func OK() Result { return Result{Status: StatusOK} }

// Operation is one attempt of a remote call.
type Operation func(ctx context.Context) Result

// QuotaWaiter blocks until the remote call quota has recovered.
type QuotaWaiter interface {
	Wait(ctx context.Context) error
}

// Executor retries an operation with exponential backoff: base delay D on
// the first failed attempt, then 2D, 4D, and so on. Quota-exceeded
// results do not consume an attempt; forbidden and transient failures do.
// The asymmetry is deliberate and observable in retry counts.
type Executor struct {
	attempts int
	base     time.Duration
	waiter   QuotaWaiter
	log      *logrus.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor builds an executor with the given attempt cap and base
// backoff delay.
func NewExecutor(attempts int, base time.Duration, waiter QuotaWaiter, log *logrus.Logger) *Executor {
	return &Executor{
		attempts: attempts,
		base:     base,
		waiter:   waiter,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Do runs op until it succeeds, fails fatally, or exhausts the attempt
// cap. label names the operation in logs and errors.
func (e *Executor) Do(ctx context.Context, label string, op Operation) error {
	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		res := op(ctx)

		switch res.Status {
		case StatusOK:
			return nil

		case StatusRateLimited:
			e.log.WithField("op", label).Warn("rate limit exceeded, waiting for reset")
			if err := e.waiter.Wait(ctx); err != nil {
				return err
			}
			attempt-- // quota waits do not consume an attempt

		case StatusForbidden:
			lastErr = res.Err
			e.log.WithFields(logrus.Fields{
				"op":      label,
				"attempt": attempt + 1,
			}).Warn("forbidden response, backing off")
			if err := e.sleep(ctx, e.delay(attempt)); err != nil {
				return err
			}

		case StatusTransient:
			if attempt == e.attempts-1 {
				return fmt.Errorf("%s: %w: %w", label, ErrExhausted, res.Err)
			}
			e.log.WithFields(logrus.Fields{
				"op":      label,
				"attempt": attempt + 1,
			}).WithError(res.Err).Warn("attempt failed, retrying")
			if err := e.sleep(ctx, e.delay(attempt)); err != nil {
				return err
			}

		case StatusFatal:
			return res.Err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%s: %w: %w", label, ErrExhausted, lastErr)
	}
	return fmt.Errorf("%s: %w", label, ErrExhausted)
}

// delay is base * 2^attempt.
func (e *Executor) delay(attempt int) time.Duration {
	return e.base << uint(attempt)
}

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
