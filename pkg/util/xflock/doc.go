// Package xflock 提供基于 sidecar 锁文件的跨进程排他锁。
//
// 多个进程向同一日志文件写入或轮转时，需要一个操作系统级别的互斥点。
// 本包在目标旁创建一个锁文件，并在其上加建议性排他锁：
//
//   - Linux / BSD / macOS: flock(2) LOCK_EX
//   - Windows: LockFileEx(LOCKFILE_EXCLUSIVE_LOCK)
//   - 其他平台: 退化为无操作，只保留进程内语义
//
// 锁文件在 [New] 时打开并一直保持到 [Lock.Close]，每次加锁与解锁
// 只发生一次系统调用。锁与打开的文件描述符绑定，同一进程内两个 [Lock]
// 指向同一路径时也会互斥。
//
// [Lock] 本身不是可重入的，也不应被多个 goroutine 同时加锁；
// 进程内的并发应先经 xkeylock 串行化。
package xflock
