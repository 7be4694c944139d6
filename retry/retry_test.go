package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWaiter struct {
	calls int
	err   error
}

func (w *fakeWaiter) Wait(context.Context) error {
	w.calls++
	return w.err
}

func newTestExecutor(waiter QuotaWaiter) (*Executor, *[]time.Duration) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	e := NewExecutor(3, 2*time.Second, waiter, log)

	var slept []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return e, &slept
}

// scripted returns an Operation that replays the given results in order.
func scripted(calls *int, results ...Result) Operation {
	i := 0
	return func(context.Context) Result {
		*calls++
		res := results[i]
		if i < len(results)-1 {
			i++
		}
		return res
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	e, slept := newTestExecutor(&fakeWaiter{})
	calls := 0

	err := e.Do(context.Background(), "list repos", scripted(&calls, OK()))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	e, slept := newTestExecutor(&fakeWaiter{})
	calls := 0
	boom := errors.New("connection reset")

	err := e.Do(context.Background(), "list commits", scripted(&calls,
		Result{Status: StatusTransient, Err: boom},
		Result{Status: StatusTransient, Err: boom},
		OK(),
	))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// k failures before success mean k sleeps: D, 2D.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestDoExhaustsAfterExactlyNAttempts(t *testing.T) {
	e, slept := newTestExecutor(&fakeWaiter{})
	calls := 0
	boom := errors.New("timeout")

	err := e.Do(context.Background(), "get commit", scripted(&calls,
		Result{Status: StatusTransient, Err: boom},
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	// The final attempt propagates without another backoff sleep.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestDoRateLimitedDoesNotConsumeAttempt(t *testing.T) {
	waiter := &fakeWaiter{}
	e, slept := newTestExecutor(waiter)
	calls := 0
	boom := errors.New("flaky")

	// One quota hit plus two transient failures still leaves room for
	// the third real attempt to succeed.
	err := e.Do(context.Background(), "list commits", scripted(&calls,
		Result{Status: StatusRateLimited, Err: errors.New("quota")},
		Result{Status: StatusTransient, Err: boom},
		Result{Status: StatusTransient, Err: boom},
		OK(),
	))

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 1, waiter.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestDoForbiddenConsumesAttempts(t *testing.T) {
	e, slept := newTestExecutor(&fakeWaiter{})
	calls := 0
	abuse := errors.New("abuse detected")

	err := e.Do(context.Background(), "probe repo", scripted(&calls,
		Result{Status: StatusForbidden, Err: abuse},
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	// The underlying cause stays inspectable after exhaustion.
	assert.ErrorIs(t, err, abuse)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, *slept)
}

func TestDoFatalAbortsImmediately(t *testing.T) {
	e, slept := newTestExecutor(&fakeWaiter{})
	calls := 0
	bad := errors.New("bad credentials")

	err := e.Do(context.Background(), "list repos", scripted(&calls,
		Result{Status: StatusFatal, Err: bad},
	))

	assert.ErrorIs(t, err, bad)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestDoWaiterErrorPropagates(t *testing.T) {
	waiter := &fakeWaiter{err: context.Canceled}
	e, _ := newTestExecutor(waiter)
	calls := 0

	err := e.Do(context.Background(), "list repos", scripted(&calls,
		Result{Status: StatusRateLimited},
	))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoSleepCancellation(t *testing.T) {
	e, _ := newTestExecutor(&fakeWaiter{})
	e.sleep = sleepCtx
	calls := 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Do(ctx, "list repos", scripted(&calls,
		Result{Status: StatusTransient, Err: errors.New("boom")},
	))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
