package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xsink/pkg/observability/xlog"
)

// Group 一组共享取消信号的服务。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 ctx 在任一服务失败或 Cancel 时取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: options}, egCtx
}

// Go 启动一个服务。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.GoWithName("", fn)
}

// GoWithName 启动一个具名服务，启动与退出写入日志。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name)}
		if name != "" {
			attrs = append(attrs, slog.String("service", name))
		}
		g.opts.logger.Debug(g.ctx, "service starting", attrs...)
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrStopped) {
			g.opts.logger.Warn(g.ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(g.ctx, "service stopped", attrs...)
		}
		return err
	})
}

// Wait 等待所有服务退出。
//
// 返回值：
//   - 服务返回的第一个非取消错误
//   - 通过 Cancel(cause) 或信号取消时返回 cause
//   - 父 ctx 取消、服务返回 [ErrStopped] 或正常结束时返回 nil
func (g *Group) Wait() error {
	defer g.cancel(nil)
	err := g.eg.Wait()
	clean := err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrStopped)

	if cause := context.Cause(g.causeCtx); g.causeCtx.Err() != nil && cause != nil && !errors.Is(cause, context.Canceled) {
		if clean {
			return cause
		}
	}
	if clean {
		return nil
	}
	return err
}

// Cancel 以 cause 取消整组。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// DefaultSignals 返回默认监听的信号。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

// Run 启动 services 并阻塞到全部退出，期间监听 [DefaultSignals]。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 与 Run 相同，支持自定义选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go(func(ctx context.Context) error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, signals...)
			defer signal.Stop(sigCh)

			var sig os.Signal
			select {
			case sig = <-sigCh:
			case sig = <-testSigChan(ctx):
			case <-ctx.Done():
				return nil
			}
			g.opts.logger.Info(ctx, "received signal",
				slog.String("group", g.opts.name), slog.String("signal", sig.String()))
			g.cancel(&SignalError{Signal: sig})
			return nil
		})
	}

	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}
