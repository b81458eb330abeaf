package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 所有信号错误的哨兵值。
	ErrSignal = errors.New("received signal")
	// ErrStopped 服务以此错误返回表示整组正常结束：其余服务被取消，Wait 返回 nil。
	ErrStopped = errors.New("xrun: stopped")
	// ErrNilFunc 服务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil function")
	// ErrInvalidInterval Ticker 间隔不是正数。
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
	// ErrInvalidSchedule cron 表达式无效。
	ErrInvalidSchedule = errors.New("xrun: invalid cron schedule")
)

// SignalError 表示因收到信号而退出。
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

func (e *SignalError) Unwrap() error { return ErrSignal }
