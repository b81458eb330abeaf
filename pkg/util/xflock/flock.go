package xflock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// lockFilePerm 锁文件权限。锁文件不含内容，只需可读写。
const lockFilePerm = 0600

// Lock 是一个跨进程排他锁。
type Lock struct {
	path string

	mu     sync.Mutex
	f      *os.File
	held   bool
	closed bool
}

// SidecarPath 返回 target 对应的锁文件路径："<dir>/.<base>.lock"。
func SidecarPath(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".lock")
}

// New 打开（必要时创建）path 处的锁文件。父目录必须已存在。
func New(path string) (*Lock, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_RDWR, lockFilePerm)
	if err != nil {
		return nil, fmt.Errorf("xflock: open %s: %w", path, err)
	}
	return &Lock{path: path, f: f}, nil
}

// Path 返回锁文件路径。
func (l *Lock) Path() string {
	return l.path
}

// Lock 阻塞直到获得排他锁。
func (l *Lock) Lock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := lockFile(l.f, true); err != nil {
		return fmt.Errorf("xflock: lock %s: %w", l.path, err)
	}
	l.held = true
	return nil
}

// TryLock 尝试非阻塞加锁。锁被其他持有者占用时返回 (false, nil)。
func (l *Lock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false, ErrClosed
	}
	ok, err := lockFile(l.f, false)
	if err != nil {
		return false, fmt.Errorf("xflock: trylock %s: %w", l.path, err)
	}
	l.held = ok
	return ok, nil
}

// Unlock 释放锁。未持有时返回 [ErrNotLocked]。
func (l *Lock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if !l.held {
		return ErrNotLocked
	}
	l.held = false
	if err := unlockFile(l.f); err != nil {
		return fmt.Errorf("xflock: unlock %s: %w", l.path, err)
	}
	return nil
}

// Close 释放锁（若持有）并关闭锁文件。锁文件本身保留在磁盘上。
// 重复调用返回 [ErrClosed]。
func (l *Lock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	if l.held {
		l.held = false
		_ = unlockFile(l.f) //nolint:errcheck // 关闭文件描述符同样会释放锁
	}
	return l.f.Close()
}
