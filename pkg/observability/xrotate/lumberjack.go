package xrotate

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/util/xfile"
)

const (
	bytesPerMB = 1024 * 1024
	hoursInDay = 24
)

// lumberjackRotator 基于 lumberjack 的 Rotator 实现。
//
// 使用 lumberjack 自己的备份命名（<name>-<timestamp>.log.gz，与活动文件同目录），
// 不提供 index 移位的归档布局。
type lumberjackRotator struct {
	logger   *lumberjack.Logger
	path     string
	fileMode os.FileMode // 0 表示不调整
	errLog   xlog.Logger
	mu       sync.Mutex // 保护 ensureFileMode 的 Stat+Chmod

	closed atomic.Bool

	// 设计决策: 用累计写入字节数推断 lumberjack 是否已自动轮转，
	// 避免每次 Write 都执行 os.Stat。
	modeApplied  atomic.Bool
	maxSizeBytes int64
	bytesWritten atomic.Int64

	// 可注入的系统调用（nil 时使用 os 标准库），仅用于测试
	statFn  func(string) (os.FileInfo, error)
	chmodFn func(string, os.FileMode) error
}

// NewLumberjack 以同一套 [Option] 创建基于 lumberjack 的轮转器。
//
// 配置映射：
//   - MaxActiveSize 向上取整到 MB
//   - CountBound: MaxBackups = MaxArchiveCount
//   - AgeBound: MaxAge 为 MaxArchiveAge 向上取整到天
//   - 始终启用 gzip 压缩；Location 为 UTC 时备份名使用 UTC
//
// lumberjack 内部使用 0600 创建文件，设置 FileMode 后在写入与轮转后通过 chmod 调整。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, fmt.Errorf("xrotate: %w", err)
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, ioFailure(err)
	}

	cfg := o.cfg
	l := &lumberjack.Logger{
		Filename:  safePath,
		MaxSize:   int(ceilDiv(cfg.MaxActiveSize, bytesPerMB)),
		Compress:  true,
		LocalTime: cfg.location() != time.UTC,
	}
	switch cfg.Retention {
	case AgeBound:
		l.MaxAge = int(ceilDiv(int64(cfg.MaxArchiveAge), int64(hoursInDay*time.Hour)))
	default:
		l.MaxBackups = cfg.MaxArchiveCount
	}

	return &lumberjackRotator{
		logger:       l,
		path:         safePath,
		fileMode:     cfg.FileMode,
		errLog:       o.logger.With(xlog.Component(componentName), xlog.Path(safePath)),
		maxSizeBytes: int64(l.MaxSize) * bytesPerMB,
	}, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// Write 实现 io.Writer 接口
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err := r.logger.Write(p)
	if err != nil {
		// 设计决策: Write 通过 closed 检查后 Close 可能在 logger.Write 期间完成，
		// 后置检查保证调用者得到 ErrClosed 而非底层 I/O 错误。
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, ioFailure(err)
	}

	if r.fileMode != 0 {
		needCheck := !r.modeApplied.Load()
		if !needCheck && r.bytesWritten.Add(int64(n)) >= r.maxSizeBytes {
			needCheck = true
		}
		if needCheck {
			r.report(r.ensureFileMode())
		}
	}
	return n, nil
}

// ensureFileMode 确保日志文件具有期望的权限。
func (r *lumberjackRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat := r.statFn
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			// lumberjack 延迟创建文件
			return nil
		}
		return err
	}

	if info.Mode().Perm() != r.fileMode {
		chmod := r.chmodFn
		if chmod == nil {
			chmod = os.Chmod
		}
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := chmod(r.path, r.fileMode); err != nil {
			return err
		}
	}

	r.modeApplied.Store(true)
	r.bytesWritten.Store(0)
	return nil
}

// report 权限调整是尽力而为，失败只记录到内部日志。
func (r *lumberjackRotator) report(err error) {
	if err != nil {
		r.errLog.Warn(context.Background(), "failed to apply file mode", xlog.Err(err))
	}
}

// Close 关闭后调用 Write 或 Rotate 返回 [ErrClosed]，重复 Close 同样返回 ErrClosed。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return ioFailure(err)
	}
	if r.fileMode != 0 {
		// 轮转后新文件是 lumberjack 默认的 0600
		r.modeApplied.Store(false)
		r.bytesWritten.Store(0)
		r.report(r.ensureFileMode())
	}
	return nil
}
