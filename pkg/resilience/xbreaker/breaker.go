package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

type (
	// Counts 熔断统计。
	Counts = gobreaker.Counts
	// State 熔断器状态。
	State = gobreaker.State
)

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Breaker 熔断器。
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	isSuccessful  func(error) bool
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器配置选项。
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断策略，nil 被忽略。
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithTimeout 设置打开状态持续时间（冷却期），d <= 0 被忽略。
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置关闭状态下统计清零的周期，0 表示不清零。
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		b.interval = max(d, 0)
	}
}

// WithMaxRequests 设置半开状态允许的探测请求数，0 被忽略。
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithSuccessFunc 设置结果判定函数。默认 err == nil 视为成功。
// 典型用途是不把 context.Canceled 计为失败。
func WithSuccessFunc(f func(error) bool) BreakerOption {
	return func(b *Breaker) {
		b.isSuccessful = f
	}
}

// WithOnStateChange 设置状态变化回调。
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器。默认连续 5 次失败打开，冷却 60s，半开放行 1 个请求。
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(5),
		timeout:     60 * time.Second,
		maxRequests: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[any](b.settings())
	return b
}

func (b *Breaker) settings() gobreaker.Settings {
	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: b.tripPolicy.ReadyToTrip,
	}
	if b.isSuccessful != nil {
		st.IsSuccessful = b.isSuccessful
	}
	if b.onStateChange != nil {
		st.OnStateChange = b.onStateChange
	}
	return st
}

// Do 在熔断器保护下执行 fn。熔断拒绝时返回 [*BreakerError]，fn 不会被调用。
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return wrapBreakerError(err, b.name)
}

// Name 返回名称。
func (b *Breaker) Name() string { return b.name }

// State 返回当前状态。
func (b *Breaker) State() State { return b.cb.State() }

// Counts 返回当前统计。
func (b *Breaker) Counts() Counts { return b.cb.Counts() }
