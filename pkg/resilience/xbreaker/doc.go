// Package xbreaker 基于 sony/gobreaker/v2 的熔断器。
//
// 日志归档在磁盘持续故障（满盘、只读挂载）时会在每次写入后反复失败。
// 熔断器在连续失败达到阈值后打开，冷却期内直接返回 [*BreakerError]，
// 冷却结束后放行一次探测；探测成功即恢复。
//
// [Breaker.Do] 的每次调用都计入熔断统计，因此调用方应在 fn 内部完成
// 单步 I/O 的重试，只把整体结果交给熔断器。
//
// 熔断错误实现 Retryable() == false，xretry 不会对其重试。
package xbreaker
