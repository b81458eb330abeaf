package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。
//
// 所有方法都接收 context，只接受 slog.Attr，避免隐式 key-value 转换。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 记录 Error 级别日志并附带当前 goroutine 的调用栈。
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger。
	//
	// 设计决策: 返回 Logger 而非 LoggerWithLevel，保持接口最小。
	// 底层实现同样满足 LoggerWithLevel，可类型断言取回级别控制。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger。
	WithGroup(name string) Logger
}

// Leveler 级别控制接口。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	// Enabled 报告指定级别当前是否输出，用于跳过昂贵的参数构造。
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 是 Build 的返回类型。
type LoggerWithLevel interface {
	Logger
	Leveler
}

// Discard 返回一个丢弃所有输出的 Logger，所有级别均不启用。
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	lv.Set(slog.Level(LevelError + 4))
	return newXLogger(slog.DiscardHandler, lv, nil, false)
}
