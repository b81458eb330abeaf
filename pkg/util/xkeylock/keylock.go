package xkeylock

import (
	"context"
	"io"
)

// Handle 表示一次成功的锁获取。
type Handle interface {
	// Unlock 释放锁。第一次调用返回 nil，后续调用返回 [ErrLockNotHeld]。
	Unlock() error

	// Key 返回锁的 key，Unlock 之后仍可调用。
	Key() string
}

// Locker 提供按 key 互斥的进程内锁，所有方法并发安全。
type Locker interface {
	io.Closer

	// Acquire 阻塞式获取锁。
	//
	// ctx 取消时返回 ctx.Err()；Locker 已关闭时返回 [ErrClosed]。
	// 等待期间 Close 与 ctx 取消同时发生时，两种错误都可能返回。
	//
	// 设计决策: 锁不可重入，与 sync.Mutex 一致。同一 goroutine 对同一 key
	// 重复 Acquire 会一直阻塞到 ctx 结束。
	Acquire(ctx context.Context, key string) (Handle, error)

	// TryAcquire 非阻塞获取锁，锁被占用时返回 (nil, [ErrLockOccupied])。
	TryAcquire(key string) (Handle, error)

	// Len 返回当前活跃 key 数量（持有者与等待者）。
	Len() int

	// Keys 返回当前活跃 key 的快照，仅用于调试。
	Keys() []string
}

// New 创建 Locker。分片数无效时返回包装 [ErrInvalidShardCount] 的错误。
func New(opts ...Option) (Locker, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newKeyLockImpl(&o), nil
}
