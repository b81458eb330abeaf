package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// globalLogger 全局 Logger，nil 表示尚未初始化。
var globalLogger atomic.Pointer[LoggerWithLevel]

// Default 返回全局 Logger，首次调用时惰性创建（stderr、Info、text）。
func Default() LoggerWithLevel {
	for {
		if l := globalLogger.Load(); l != nil {
			return *l
		}
		l, _, _ := New().Build() //nolint:errcheck // 默认配置无错误路径
		if globalLogger.CompareAndSwap(nil, &l) {
			return l
		}
	}
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalLogger.Store(&l)
}

// ResetDefault 把全局 Logger 恢复为未初始化状态，仅用于测试。
func ResetDefault() {
	globalLogger.Store(nil)
}

func globalLog(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		// 业务代码 → xlog.Info → globalLog → emit
		xl.emit(ctx, level, msg, attrs, 1)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(ctx, msg, attrs...)
	case slog.LevelInfo:
		l.Info(ctx, msg, attrs...)
	case slog.LevelWarn:
		l.Warn(ctx, msg, attrs...)
	default:
		l.Error(ctx, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 日志。
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelDebug, msg, attrs)
}

// Info 使用全局 Logger 记录 Info 日志。
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelInfo, msg, attrs)
}

// Warn 使用全局 Logger 记录 Warn 日志。
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelWarn, msg, attrs)
}

// Error 使用全局 Logger 记录 Error 日志。
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalLog(ctx, slog.LevelError, msg, attrs)
}

// Stack 使用全局 Logger 记录带堆栈的错误日志。
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l := Default()
	if xl, ok := l.(*xlogger); ok {
		xl.stack(ctx, msg, attrs, 1)
		return
	}
	l.Stack(ctx, msg, attrs...)
}
