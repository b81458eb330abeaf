package xretry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Executor 重试执行器接口，供调用方 mock。
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Executor = (*Retryer)(nil)

// Retryer 组合重试策略与退避策略的执行器。零值可用（不重试）。
type Retryer struct {
	retryPolicy   RetryPolicy
	backoffPolicy BackoffPolicy
	onRetry       func(attempt int, err error)
}

// RetryerOption 执行器配置选项。
type RetryerOption func(*Retryer)

// WithRetryPolicy 设置重试策略，nil 被忽略。
func WithRetryPolicy(p RetryPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.retryPolicy = p
		}
	}
}

// WithBackoffPolicy 设置退避策略，nil 被忽略。
func WithBackoffPolicy(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoffPolicy = p
		}
	}
}

// WithOnRetry 设置每次失败且将要重试时的回调，attempt 从 1 开始。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建执行器。默认 NeverRetry + ExponentialBackoff。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		retryPolicy:   NewNeverRetry(),
		backoffPolicy: NewExponentialBackoff(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Do 执行 fn，失败时按策略重试。返回最后一次的错误。
// nil 接收者等价于只执行一次。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 是带返回值的 Do。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

// MaxAttempts 返回最大尝试次数，nil 接收者返回 1。
func (r *Retryer) MaxAttempts() int {
	if r == nil || r.retryPolicy == nil {
		return 1
	}
	return max(r.retryPolicy.MaxAttempts(), 1)
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	var (
		policy  RetryPolicy   = NewNeverRetry()
		backoff BackoffPolicy = NewFixedBackoff(0)
		onRetry func(int, error)
	)
	if r != nil {
		if r.retryPolicy != nil {
			policy = r.retryPolicy
		}
		if r.backoffPolicy != nil {
			backoff = r.backoffPolicy
		}
		onRetry = r.onRetry
	}

	// 设计决策: Attempts 是硬上限，ShouldRetry 只能提前终止。
	var failures atomic.Int64
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(max(policy.MaxAttempts(), 1))), //nolint:gosec // 已保证为正
		retry.RetryIf(func(err error) bool {
			n := int(failures.Add(1))
			if !retry.IsRecoverable(err) {
				return false
			}
			return policy.ShouldRetry(ctx, n, err)
		}),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return backoff.NextDelay(int(min(n, math.MaxInt32)))
		}),
		retry.LastErrorOnly(true),
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// retry-go 的 n 从 0 开始
			onRetry(int(min(n, math.MaxInt32))+1, err)
		}))
	}
	return opts
}
