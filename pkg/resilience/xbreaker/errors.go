package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNilContext 表示传入了 nil context。
	ErrNilContext = errors.New("xbreaker: context cannot be nil")
	// ErrNilFunc 表示传入了 nil 函数。
	ErrNilFunc = errors.New("xbreaker: function cannot be nil")

	// ErrOpenState 熔断器处于打开状态。
	ErrOpenState = gobreaker.ErrOpenState
	// ErrTooManyRequests 半开状态下探测请求已满。
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// BreakerError 包装熔断器拒绝执行的错误。
type BreakerError struct {
	Err   error
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

func (e *BreakerError) Unwrap() error { return e.Err }

// Retryable 熔断拒绝不应重试。
func (e *BreakerError) Retryable() bool { return false }

// wrapBreakerError 只包装 gobreaker 直接返回的哨兵错误，状态由错误类型推导。
func wrapBreakerError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case err == gobreaker.ErrOpenState: //nolint:errorlint // 只匹配本层熔断器的直接返回值
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case err == gobreaker.ErrTooManyRequests: //nolint:errorlint // 同上
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 报告 err 是否为熔断打开（或半开探测已满）导致的拒绝。
func IsOpen(err error) bool {
	var be *BreakerError
	return errors.As(err, &be)
}
