package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/retry"
)

var errTransient = errors.New("transient failure")

func TestFailureBudget(t *testing.T) {
	t.Parallel()

	r := retry.New(retry.WithAttempts(3), retry.WithDelay(0))
	ctx := context.Background()

	// Three failures fit within the budget.
	for i := range 3 {
		require.NoError(t, r.Failure(ctx, errTransient), "failure %d", i+1)
	}
	assert.Equal(t, 0, r.Remaining())

	// The fourth propagates the cause.
	err := r.Failure(ctx, errTransient)
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 0, r.Remaining())
}

func TestFailureWaitsBetweenAttempts(t *testing.T) {
	t.Parallel()

	const delay = 40 * time.Millisecond
	r := retry.New(retry.WithAttempts(1), retry.WithDelay(delay))

	began := time.Now()
	require.NoError(t, r.Failure(context.Background(), errTransient))
	assert.GreaterOrEqual(t, time.Since(began), delay)
}

func TestFailureHonorsContext(t *testing.T) {
	t.Parallel()

	r := retry.New(retry.WithAttempts(3), retry.WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Failure(ctx, errTransient)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReset(t *testing.T) {
	t.Parallel()

	r := retry.New(retry.WithAttempts(1), retry.WithDelay(0))
	ctx := context.Background()

	require.NoError(t, r.Failure(ctx, errTransient))
	require.ErrorIs(t, r.Failure(ctx, errTransient), errTransient)

	r.Reset()
	require.NoError(t, r.Failure(ctx, errTransient))
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()
		r := retry.New(retry.WithAttempts(3), retry.WithDelay(0))
		calls := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls <= 3 {
				return errTransient
			}
			return nil
		}, func(err error) bool { return errors.Is(err, errTransient) })
		require.NoError(t, err)
		assert.Equal(t, 4, calls)
	})

	t.Run("exhaustion returns last error", func(t *testing.T) {
		t.Parallel()
		r := retry.New(retry.WithAttempts(2), retry.WithDelay(0))
		calls := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errTransient
		}, func(err error) bool { return true })
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable errors stop immediately", func(t *testing.T) {
		t.Parallel()
		fatal := errors.New("fatal")
		r := retry.New(retry.WithAttempts(3), retry.WithDelay(0))
		calls := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return fatal
		}, func(err error) bool { return errors.Is(err, errTransient) })
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})
}
