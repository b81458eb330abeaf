package xrotate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/util/xfile"
	"github.com/omeyang/xsink/pkg/util/xflock"
	"github.com/omeyang/xsink/pkg/util/xkeylock"
)

// pathLocks 进程内按活动文件路径互斥。
// 同一路径的多个 File 实例共享同一把锁。
var pathLocks = mustLocker()

func mustLocker() xkeylock.Locker {
	l, err := xkeylock.New()
	if err != nil {
		// 默认选项不会失败
		panic(err)
	}
	return l
}

// File 追加写入活动文件，超过阈值时同步归档。
//
// 每次写入在持有路径锁的情况下完成"创建目录 → 打开 → 写入 → 可选 fsync →
// 检查大小 → 可能的轮转"。轮转失败只记录日志，不影响写入的返回值。
type File struct {
	path     string
	cfg      Config
	archiver *Archiver
	logger   xlog.Logger

	flockMu sync.Mutex
	flock   *xflock.Lock

	closed atomic.Bool
}

// New 创建 File。活动文件在首次写入时创建，归档目录在首次轮转时创建。
//
// filename 必须带扩展名，归档目录为去掉扩展名后的路径。
func New(filename string, opts ...Option) (*File, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, fmt.Errorf("xrotate: %w", err)
	}
	if _, _, err := ArchiveDir(safePath); err != nil {
		return nil, err
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &File{
		path:     safePath,
		cfg:      o.cfg,
		archiver: newArchiver(o),
		logger:   o.logger.With(xlog.Component(componentName)),
	}, nil
}

// Path 返回规范化后的活动文件路径。
func (f *File) Path() string {
	return f.path
}

// ArchiveDir 返回归档目录。
func (f *File) ArchiveDir() string {
	dir, _, _ := ArchiveDir(f.path) //nolint:errcheck // New 中已校验
	return dir
}

// Config 返回配置。
func (f *File) Config() Config {
	return f.cfg
}

// Archiver 返回内部归档器，可用于查询当前阶段。
func (f *File) Archiver() *Archiver {
	return f.archiver
}

// WriteLine 追加 line 与换行符。
func (f *File) WriteLine(line string) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := f.Write(buf)
	return err
}

// WriteString 实现 io.StringWriter，原样追加 s。
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Write 原样追加 p，实现 io.Writer。
//
// 返回的错误只反映写入本身（包装 [ErrIOFailure]），轮转失败不会返回。
func (f *File) Write(p []byte) (int, error) {
	var n int
	err := f.withLock(func(ctx context.Context) error {
		var (
			size int64
			werr error
		)
		n, size, werr = f.appendLocked(ctx, p)
		if werr != nil {
			return werr
		}
		if ShouldRotate(size, f.cfg) {
			// 失败已由 Archiver 记录，活动文件保留到下一次超过阈值时重试
			_, _ = f.archiver.Rotate(ctx, f.path)
		}
		return nil
	})
	return n, err
}

func (f *File) appendLocked(ctx context.Context, p []byte) (n int, size int64, err error) {
	if err := xfile.EnsureDir(f.path); err != nil {
		return 0, 0, ioFailure(err)
	}

	var fh *os.File
	if err := f.archiver.io(ctx, func() (oerr error) {
		fh, oerr = os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, f.cfg.fileMode())
		return oerr
	}); err != nil {
		return 0, 0, ioFailure(err)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = ioFailure(cerr)
		}
	}()

	n, err = fh.Write(p)
	if err != nil {
		return n, 0, ioFailure(err)
	}
	if f.cfg.SyncAfterEachWrite {
		if err := fh.Sync(); err != nil {
			return n, 0, ioFailure(err)
		}
	}
	info, err := fh.Stat()
	if err != nil {
		return n, 0, ioFailure(err)
	}
	return n, info.Size(), nil
}

// Rotate 立即轮转，返回轮转错误。活动文件不存在时什么都不做。
//
// 与自动轮转不同，手动轮转不受"MaxArchiveCount 为 1 时关闭轮转"的限制：
// 此时旧归档被全部淘汰，只保留新归档。
func (f *File) Rotate() error {
	return f.withLock(func(ctx context.Context) error {
		_, err := f.archiver.Rotate(ctx, f.path)
		return err
	})
}

// RotateResult 与 Rotate 相同，额外返回轮转结果。
func (f *File) RotateResult() (Result, error) {
	var res Result
	err := f.withLock(func(ctx context.Context) (rerr error) {
		res, rerr = f.archiver.Rotate(ctx, f.path)
		return rerr
	})
	return res, err
}

// DeleteActiveFile 删除活动文件。返回 nil 表示活动文件已不存在（包括原本就不存在）。
// 不会触碰归档目录。
func (f *File) DeleteActiveFile() error {
	return f.withLock(func(context.Context) error {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ioFailure(err)
		}
		return nil
	})
}

// Sweep 按保留策略清理归档但不轮转，返回删除的数量。
func (f *File) Sweep() (int, error) {
	var n int
	err := f.withLock(func(ctx context.Context) (serr error) {
		n, serr = f.archiver.Sweep(ctx, f.path)
		return serr
	})
	return n, err
}

// Entries 返回当前归档，按 index 升序。
func (f *File) Entries() ([]Entry, error) {
	var entries []Entry
	err := f.withLock(func(ctx context.Context) (lerr error) {
		entries, lerr = f.archiver.Entries(ctx, f.path)
		return lerr
	})
	return entries, err
}

// Close 释放跨进程锁文件句柄。之后的调用返回 [ErrClosed]。
//
// Close 等待正在进行的写入或轮转完成。不会删除活动文件或归档。
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return ErrClosed
	}
	h, err := pathLocks.Acquire(context.Background(), f.path)
	if err != nil {
		return fmt.Errorf("%w: acquire path lock: %w", ErrIOFailure, err)
	}
	defer h.Unlock() //nolint:errcheck // 持有者释放不会失败

	f.flockMu.Lock()
	defer f.flockMu.Unlock()
	if f.flock == nil {
		return nil
	}
	err = f.flock.Close()
	f.flock = nil
	return err
}

// withLock 依次获取进程内路径锁与跨进程文件锁后执行 fn，所有路径上都会释放。
func (f *File) withLock(fn func(ctx context.Context) error) error {
	if f.closed.Load() {
		return ErrClosed
	}
	ctx := context.Background()
	h, err := pathLocks.Acquire(ctx, f.path)
	if err != nil {
		return fmt.Errorf("%w: acquire path lock: %w", ErrIOFailure, err)
	}
	defer h.Unlock() //nolint:errcheck // 持有者释放不会失败

	// Close 可能在等待路径锁期间完成
	if f.closed.Load() {
		return ErrClosed
	}

	if f.cfg.ProcessLock {
		fl, err := f.processLock()
		if err != nil {
			return err
		}
		if err := fl.Lock(); err != nil {
			return fmt.Errorf("%w: acquire file lock: %w", ErrIOFailure, err)
		}
		defer func() {
			if uerr := fl.Unlock(); uerr != nil {
				f.logger.Warn(ctx, "failed to release file lock", xlog.Path(fl.Path()), xlog.Err(uerr))
			}
		}()
	}
	return fn(ctx)
}

// processLock 延迟打开旁路锁文件，之后在 File 生命周期内复用。
func (f *File) processLock() (*xflock.Lock, error) {
	f.flockMu.Lock()
	defer f.flockMu.Unlock()
	if f.flock != nil {
		return f.flock, nil
	}
	if err := xfile.EnsureDir(f.path); err != nil {
		return nil, ioFailure(err)
	}
	fl, err := xflock.New(xflock.SidecarPath(f.path))
	if err != nil {
		return nil, ioFailure(err)
	}
	f.flock = fl
	return fl, nil
}
