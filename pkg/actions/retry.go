package actions

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults of RetryPolicy.
const (
	DefaultAttempts = 3
	DefaultDelay    = 250 * time.Millisecond
)

// Operation is a unit of work that Retry may invoke several times.
type Operation[T any] interface {
	Invoke(ctx context.Context) (T, error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc[T any] func(ctx context.Context) (T, error)

// Invoke calls f.
func (f OperationFunc[T]) Invoke(ctx context.Context) (T, error) {
	return f(ctx)
}

// RetryPolicy bounds how Retry repeats a failing operation.
type RetryPolicy struct {
	// Attempts is the total number of invocations. Values below 1 mean 1.
	Attempts int

	// Delay is the fixed pause between attempts. There is no backoff growth
	// and no jitter.
	Delay time.Duration

	// Retryable selects the errors worth another attempt. Nil retries every error.
	Retryable func(error) bool

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy returns 3 attempts, 250ms apart, retrying every error.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
	}
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p RetryPolicy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

// newRetryTimer supplies the timer Retry waits on between attempts. Nil
// means a real timer.
var newRetryTimer func() backoff.Timer

// Retry invokes op until it succeeds or policy.Attempts invocations have
// failed. The error of the last attempt is returned as is. Errors rejected by
// policy.Retryable are returned immediately. If ctx ends during a delay,
// ctx.Err() is returned.
func Retry[T any](ctx context.Context, policy RetryPolicy, op Operation[T]) (T, error) {
	attempts := policy.attempts()
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	notify := func(err error, _ time.Duration) {
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
	}

	var timer backoff.Timer
	if newRetryTimer != nil {
		timer = newRetryTimer()
	}

	result, err := backoff.RetryNotifyWithTimerAndData[T](func() (T, error) {
		attempt++
		result, err := op.Invoke(ctx)
		if err != nil && !policy.retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, b, notify, timer)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// RetryFunc is Retry for operations without a result.
func RetryFunc(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, policy, OperationFunc[struct{}](func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}))
	return err
}
