package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fastRetryer(attempts int, opts ...RetryerOption) *Retryer {
	base := []RetryerOption{
		WithRetryPolicy(NewFixedRetry(attempts)),
		WithBackoffPolicy(NewFixedBackoff(time.Millisecond)),
	}
	return NewRetryer(append(base, opts...)...)
}

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var retries []int
	r := fastRetryer(3, WithOnRetry(func(attempt int, _ error) {
		retries = append(retries, attempt)
	}))

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
	assert.Equal(t, 3, r.MaxAttempts())
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	r := fastRetryer(2)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestRetryer_PermanentStopsImmediately(t *testing.T) {
	r := fastRetryer(5)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return NewPermanentError(errFlaky)
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestRetryer_DefaultNeverRetries(t *testing.T) {
	calls := 0
	err := NewRetryer().Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryer_NilReceiver(t *testing.T) {
	var r *Retryer
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, r.MaxAttempts())
}

func TestRetryer_InvalidArguments(t *testing.T) {
	r := NewRetryer()
	//nolint:staticcheck // 故意传 nil
	assert.ErrorIs(t, r.Do(nil, func(context.Context) error { return nil }), ErrNilContext)
	assert.ErrorIs(t, r.Do(context.Background(), nil), ErrNilFunc)

	_, err := DoWithResult[int](context.Background(), r, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestRetryer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := fastRetryer(10)
	calls := 0
	err := r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult(t *testing.T) {
	r := fastRetryer(3)
	calls := 0
	n, err := DoWithResult(context.Background(), r, func(context.Context) (int64, error) {
		calls++
		if calls == 1 {
			return 0, NewTemporaryError(errFlaky)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, 2, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errFlaky))
	assert.True(t, IsRetryable(NewTemporaryError(nil)))
	assert.False(t, IsRetryable(NewPermanentError(nil)))
	assert.Equal(t, "permanent error", NewPermanentError(nil).Error())
	assert.Equal(t, "temporary error", NewTemporaryError(nil).Error())
	assert.False(t, IsPermanent(nil))
}
