package xretry

import "context"

// RetryPolicy 决定最大尝试次数与每次失败后是否继续。
type RetryPolicy interface {
	// MaxAttempts 返回最大尝试次数（含首次），至少为 1。
	MaxAttempts() int
	// ShouldRetry 在第 attempt 次（从 1 开始）失败后调用。
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// FixedRetryPolicy 固定次数重试。
type FixedRetryPolicy struct {
	maxAttempts int
}

// NewFixedRetry 创建固定次数重试，maxAttempts 小于 1 时按 1 处理。
func NewFixedRetry(maxAttempts int) *FixedRetryPolicy {
	return &FixedRetryPolicy{maxAttempts: max(maxAttempts, 1)}
}

func (p *FixedRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *FixedRetryPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	if ctx.Err() != nil || attempt >= p.maxAttempts {
		return false
	}
	return IsRetryable(err)
}

// NeverRetryPolicy 只执行一次。
type NeverRetryPolicy struct{}

// NewNeverRetry 创建不重试策略。
func NewNeverRetry() *NeverRetryPolicy {
	return &NeverRetryPolicy{}
}

func (*NeverRetryPolicy) MaxAttempts() int { return 1 }

func (*NeverRetryPolicy) ShouldRetry(context.Context, int, error) bool { return false }

var (
	_ RetryPolicy = (*FixedRetryPolicy)(nil)
	_ RetryPolicy = (*NeverRetryPolicy)(nil)
)
