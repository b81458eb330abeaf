// Package xrotate 提供按大小触发、按数量或时长保留的日志文件轮转。
//
// [File] 是核心实现：每次写入追加到活动文件，写入后若文件大小超过阈值，
// 同步执行一次归档：
//
//	淘汰（Evict）→ 移位（Shift）→ 压缩（Compress）→ 写入归档 → 删除活动文件
//
// 归档目录与活动文件同级，名称为活动文件去掉扩展名，例如 /var/log/app.log
// 的归档目录为 /var/log/app/，归档文件名为：
//
//	<base>-<yyyy-MM-dd HH:mm:ss>-<index>.gz
//
// index 从 1 开始，1 始终是最新的归档。每次轮转时已有归档的 index 依次加一。
//
// # 保留策略
//
//   - [CountBound]: 归档数量达到 MaxArchiveCount 时淘汰 index 最大的归档
//   - [AgeBound]: 淘汰时间标签距今超过 MaxArchiveAge 的归档
//
// 无法解析的文件名会被记录日志并跳过，不会阻塞轮转。
//
// # 并发
//
// 同一进程内按活动文件路径互斥（xkeylock），跨进程使用旁路锁文件
// ".<name>.lock" 上的建议锁（xflock）。锁覆盖整个"写入 + 可能的轮转"过程。
//
// # 失败语义
//
// 轮转失败只记录日志和观测指标，不影响写入结果；活动文件保留，
// 下一次超过阈值的写入会再次尝试。压缩失败时活动文件保持原样，
// 不会留下不完整的归档。
//
// # 其他实现
//
//   - [NewLumberjack]: 基于 lumberjack v2，使用 lumberjack 自己的备份命名
//   - [Open]: 根据 [FileConfig] 选择实现
package xrotate
