package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 配置变更回调。err 非 nil 表示重载失败或监视出错，此时 cfg 仍为旧配置。
type WatchCallback func(cfg Config, err error)

// WatchOption 监视器配置选项。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖窗口，默认 100ms。d <= 0 被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器。
type Watcher struct {
	cfg      Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	// pending 跟踪已触发但尚未结束的回调，Run 返回前等待它们
	pending sync.WaitGroup
}

// Watch 创建监视器。cfg 必须由 [New] 创建。
// 返回后应调用 [Watcher.Run]；若不运行，需调用 [Watcher.Close] 释放资源。
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录而非文件：rename 式保存会使文件级 watch 失效
	dir := filepath.Dir(cfg.Path())
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fs.Close())
	}

	w := &Watcher{cfg: cfg, fs: fs, callback: callback, debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 处理文件事件直到 ctx 结束，返回前关闭底层 watcher 并等待进行中的回调。
// 正常结束返回 nil。
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.Close() //nolint:errcheck // 已在退出路径
		w.pending.Wait()
	}()

	name := filepath.Base(w.cfg.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if w.callback != nil {
				w.callback(w.cfg, fmt.Errorf("xconf: watch error: %w", err))
			}
		}
	}
}

// schedule 重置防抖计时器。
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		// 未触发的计时器被取消，对应的 pending 计数一并撤销
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		err := w.cfg.Reload()
		if w.callback != nil {
			w.callback(w.cfg, err)
		}
	})
}

// Close 停止监视。可重复调用，Close 之后不会再触发新的回调。
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.timer = nil
	w.mu.Unlock()
	return w.fs.Close()
}
