package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// errState 是派生 logger 之间共享的内部错误状态。
type errState struct {
	onError   func(error)
	count     atomic.Uint64
	inHandler atomic.Bool
}

type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	errs      *errState
	addSource bool
}

func newXLogger(h slog.Handler, lv *slog.LevelVar, onError func(error), addSource bool) *xlogger {
	return &xlogger{
		handler:   h,
		levelVar:  lv,
		errs:      &errState{onError: onError},
		addSource: addSource,
	}
}

// derive 复制共享状态，替换 handler。
func (l *xlogger) derive(h slog.Handler) *xlogger {
	return &xlogger{handler: h, levelVar: l.levelVar, errs: l.errs, addSource: l.addSource}
}

// emit 输出一条记录。
// skip 是 emit 的直接调用方与业务代码之间额外的栈帧数：
// 实例方法为 0，经 stack 或全局函数转发时相应增加。
//
//go:noinline
func (l *xlogger) emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, skip int, extra ...slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// Callers(0) → emit(1) → Info 等(2) → 业务代码(3)
		runtime.Callers(3+skip, pcs[:])
		pc = pcs[0]
	}
	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	r.AddAttrs(extra...)
	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// handleError 计数并通知 onError。
//
// 设计决策: 并发写入失败期间，CAS 未抢到的错误只计数不回调。
// 回调是尽力而为的通知，计数才是准确值。
func (l *xlogger) handleError(err error) {
	l.errs.count.Add(1)
	if l.errs.onError == nil {
		return
	}
	if !l.errs.inHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.errs.inHandler.Store(false)
	defer func() {
		if r := recover(); r != nil {
			l.errs.count.Add(1)
		}
	}()
	l.errs.onError(err)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelDebug, msg, attrs, 0)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelInfo, msg, attrs, 0)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelWarn, msg, attrs, 0)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, slog.LevelError, msg, attrs, 0)
}

func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.stack(ctx, msg, attrs, 1)
}

//go:noinline
func (l *xlogger) stack(ctx context.Context, msg string, attrs []slog.Attr, skip int) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 必须在归还缓冲区之前拷贝成 string
	st := slog.String(KeyStack, string(buf[:n]))
	stackPool.Put(bufp)

	l.emit(ctx, slog.LevelError, msg, attrs, skip, st)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}

// ErrorCount 返回 logger 及其派生 logger 累计的写入失败次数。
// 非本包构建的 Logger 返回 0。
func ErrorCount(l Logger) uint64 {
	if xl, ok := l.(*xlogger); ok {
		return xl.errs.count.Load()
	}
	return 0
}
