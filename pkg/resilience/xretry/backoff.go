package xretry

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffPolicy 计算第 attempt 次失败（从 1 开始）之后的等待时间。
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// FixedBackoff 固定延迟退避。
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定延迟退避，负数视为 0。
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	return &FixedBackoff{delay: max(delay, 0)}
}

func (b *FixedBackoff) NextDelay(int) time.Duration {
	return b.delay
}

// ExponentialBackoff 指数退避：
// delay = min(initial * multiplier^(attempt-1) * (1 ± jitter), max)
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
}

// ExponentialBackoffOption 指数退避配置选项。
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置初始延迟，d <= 0 被忽略。
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initialDelay = d
		}
	}
}

// WithMaxDelay 设置最大延迟，d <= 0 被忽略。
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier 设置乘数，小于 1 被忽略。
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithJitter 设置抖动比例，截断到 [0, 1]。
func WithJitter(j float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		b.jitter = min(max(j, 0), 1)
	}
}

// NewExponentialBackoff 创建指数退避。
// 默认 initial 10ms、max 1s、multiplier 2、jitter 0.1，适合本地文件操作。
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 10 * time.Millisecond,
		maxDelay:     time.Second,
		multiplier:   2,
		jitter:       0.1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.maxDelay = max(b.maxDelay, b.initialDelay)
	return b
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	attempt = max(attempt, 1)
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	if b.jitter > 0 {
		delay *= 1 + (rand.Float64()*2-1)*b.jitter //nolint:gosec // 抖动不需要密码学随机
	}
	// attempt 极大时 Pow 溢出为 +Inf，NaN 的比较恒为 false，需单独处理
	if math.IsNaN(delay) || delay >= float64(b.maxDelay) {
		return b.maxDelay
	}
	return time.Duration(max(delay, 0))
}

var (
	_ BackoffPolicy = (*FixedBackoff)(nil)
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
)
