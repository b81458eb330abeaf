package xflock

import "errors"

var (
	// ErrEmptyPath 表示锁文件路径为空。
	ErrEmptyPath = errors.New("xflock: path is required")

	// ErrClosed 表示 Lock 已关闭。
	ErrClosed = errors.New("xflock: closed")

	// ErrNotLocked 表示在未持有锁时调用 Unlock。
	ErrNotLocked = errors.New("xflock: not locked")
)
