// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xmetrics: 统一可观测性接口（指标、追踪），OpenTelemetry 实现
//   - xrotate: 按大小轮转、按数量或年龄保留的日志文件
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 轮转自身的日志写入独立的日志器，不回写被轮转的文件
package observability
