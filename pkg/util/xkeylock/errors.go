package xkeylock

import "errors"

var (
	// ErrLockNotHeld 表示锁已被释放。
	ErrLockNotHeld = errors.New("xkeylock: lock not held")

	// ErrLockOccupied 表示 TryAcquire 时锁已被他人持有。
	ErrLockOccupied = errors.New("xkeylock: lock occupied")

	// ErrClosed 表示 Locker 已关闭。
	ErrClosed = errors.New("xkeylock: closed")

	// ErrMaxKeysExceeded 表示已达到最大 key 数量限制。
	ErrMaxKeysExceeded = errors.New("xkeylock: max keys exceeded")

	// ErrInvalidKey 表示 key 为空字符串。
	ErrInvalidKey = errors.New("xkeylock: key is required")

	// ErrNilContext 表示 Acquire 传入了 nil context。
	ErrNilContext = errors.New("xkeylock: nil context")

	// ErrInvalidShardCount 表示分片数不是 [1, 65536] 内的 2 的幂。
	ErrInvalidShardCount = errors.New("xkeylock: invalid shard count")
)
