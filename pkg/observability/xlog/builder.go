package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// ReplaceAttrFunc 属性替换函数，返回空 Key 的 Attr 表示移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器。一次性使用。
type Builder struct {
	output      io.Writer
	closer      io.Closer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	onError     func(error)
	err         error
}

// New 创建构建器：stderr、Info 级别、text 格式。
func New() *Builder {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: lv,
		format:   "text",
	}
}

// SetOutput 设置输出目标。Build 的 cleanup 不会关闭它。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = errors.New("xlog: nil output")
		return b
	}
	b.output = w
	b.closer = nil
	return b
}

// SetRotator 设置一个由 logger 接管生命周期的写入目标。
// cleanup 会调用其 Close。通常传入按大小轮转的文件写入器。
func (b *Builder) SetRotator(w io.WriteCloser) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = errors.New("xlog: nil rotator")
		return b
	}
	b.output = w
	b.closer = w
	return b
}

// SetLevel 设置日志级别。
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别。
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json。空字符串视为 text。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = f
	default:
		b.err = fmt.Errorf("xlog: unknown format %q", format)
	}
	return b
}

// SetAddSource 是否输出源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetReplaceAttr 设置属性替换函数，用于字段重命名、脱敏或过滤。
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetOnError 设置写入失败回调。
//
// 回调在写入路径上同步执行，应保持轻量。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger。
//
// 返回的 cleanup 关闭 SetRotator 设置的写入目标，多次调用只生效一次。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var h slog.Handler
	if b.format == "json" {
		h = slog.NewJSONHandler(b.output, opts)
	} else {
		h = slog.NewTextHandler(b.output, opts)
	}

	closer := b.closer
	var once sync.Once
	cleanup := func() error {
		var err error
		once.Do(func() {
			if closer != nil {
				err = closer.Close()
			}
		})
		return err
	}
	return newXLogger(h, b.levelVar, b.onError, b.addSource), cleanup, nil
}
