package retry

import (
	"context"
	"time"
)

const (
	// DefaultAttempts is the number of retries granted beyond the first try.
	DefaultAttempts = 3
	// DefaultDelay is the fixed wait between attempts.
	DefaultDelay = 2000 * time.Millisecond
)

// Retrier tracks the remaining attempts for a single logical operation.
// It is not safe for concurrent use; create one per operation.
type Retrier struct {
	attempts  int
	remaining int
	delay     time.Duration
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithAttempts sets how many retries are granted beyond the first try.
func WithAttempts(n int) Option {
	return func(r *Retrier) {
		if n >= 0 {
			r.attempts = n
		}
	}
}

// WithDelay sets the fixed wait between attempts.
func WithDelay(d time.Duration) Option {
	return func(r *Retrier) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// New returns a Retrier with the default policy unless overridden.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.remaining = r.attempts
	return r
}

// Failure records a failed attempt. If attempts remain it blocks for the
// configured delay and returns nil, signalling the caller to try again.
// Once attempts are exhausted, or the context is cancelled during the wait,
// the corresponding error is returned and the operation must stop.
func (r *Retrier) Failure(ctx context.Context, cause error) error {
	r.remaining--
	if r.remaining < 0 {
		return cause
	}
	if r.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Remaining reports the retries left for the current operation.
func (r *Retrier) Remaining() int {
	if r.remaining < 0 {
		return 0
	}
	return r.remaining
}

// Reset restores the full attempt budget for reuse across independent
// operations.
func (r *Retrier) Reset() {
	r.remaining = r.attempts
}

// Do runs fn, retrying while retryable reports the returned error as
// transient. Non-retryable errors and retry exhaustion are returned to the
// caller as-is.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if rerr := r.Failure(ctx, err); rerr != nil {
			return rerr
		}
	}
}
