package xrotate

import "io"

// 编译时断言
var (
	_ io.WriteCloser  = (Rotator)(nil)
	_ Rotator         = (*File)(nil)
	_ io.StringWriter = (*File)(nil)
)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xlog 的输出目标（xlog.Builder.SetRotator）。
// 所有实现都必须是并发安全的。
//
// 约定：
//   - Close 后调用 Write 或 Rotate 返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入日志数据，满足条件时自动轮转
	Write(p []byte) (n int, err error)

	// Close 关闭轮转器，释放资源。重复调用返回 [ErrClosed]。
	Close() error

	// Rotate 手动触发轮转
	Rotate() error
}
