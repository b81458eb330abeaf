// Package xkeylock 提供按 key 互斥的进程内锁。
//
// 日志落盘场景下 key 通常是活动日志文件的规范化绝对路径：
// 同一进程内指向同一文件的多个写入器共享一把锁，
// 不同文件之间互不阻塞。跨进程互斥由 xflock 负责，两者叠加使用，
// 先取进程内锁，再取文件锁。
//
// # 特性
//
//   - Acquire 支持 ctx 超时与取消
//   - TryAcquire 非阻塞，锁被占用时返回 [ErrLockOccupied]
//   - Handle.Unlock 幂等（首次返回 nil，之后返回 [ErrLockNotHeld]）
//   - 分片 map（默认 32 分片），key 经 xxhash 散列
//   - 条目按引用计数回收，不再使用的 key 不会常驻内存
//   - Close 拒绝新请求并唤醒所有等待者；已持有的锁不受影响
package xkeylock
