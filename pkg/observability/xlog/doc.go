// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：第一个配置错误之后的 Set 不再生效）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotator(sink). // 任意 io.WriteCloser，例如 xrotate.File
//		Build()
//	defer cleanup()
//
// cleanup 负责关闭 [Builder.SetRotator] 传入的写入目标，重复调用安全。
//
// # 级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// [ParseLevel] 接受 debug/info/warn/warning/error（大小写不敏感）。
// Level 实现 encoding.TextUnmarshaler，可直接出现在配置结构体中。
// 派生 logger（With/WithGroup）共享父级的 LevelVar，运行时调整同步生效。
//
// # 全局 Logger
//
// 供命令行工具等简单场景使用：[Default]、[SetDefault]、[ResetDefault]，
// 以及 [Debug]、[Info]、[Warn]、[Error]、[Stack]。
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Operation]、[Count]、[Path]、[Stage]、[Index]、[Size]。
//
// # 写入失败
//
// Handler 写入失败不会返回给调用方，而是计数并交给 [Builder.SetOnError] 回调。
// 回调内 panic 被隔离，回调内再次触发的写入失败不会递归。
package xlog
