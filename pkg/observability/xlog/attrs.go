package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 key，所有组件统一使用。
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyPath      = "path"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyStage     = "stage"
	KeyIndex     = "index"
	KeySize      = "size"
)

// Err 创建错误属性。err 为 nil 时返回空属性，slog 会忽略它。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建人类可读的耗时属性（"1.5s"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性。
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Path 创建文件路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Stage 创建流水线阶段属性。
func Stage(s string) slog.Attr {
	return slog.String(KeyStage, s)
}

// Index 创建序号属性。
func Index(i int) slog.Attr {
	return slog.Int(KeyIndex, i)
}

// Size 创建字节数属性。
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}
