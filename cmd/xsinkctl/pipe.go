package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xsink/pkg/config/xconf"
	"github.com/omeyang/xsink/pkg/lifecycle/xrun"
	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/observability/xrotate"
)

// maxLineBytes 单行上限，超出时 pipe 以错误结束。
const maxLineBytes = 1 << 20

// liveSink 可在运行中替换的轮转器。
//
// 设计决策: 写入与替换共用一把锁，替换完成后旧轮转器才被关闭，
// 因此任何一行只会写入新旧之一。
type liveSink struct {
	mu     sync.Mutex
	r      xrotate.Rotator
	closed bool
}

func (s *liveSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return xrotate.ErrClosed
	}
	return writeLine(s.r, line)
}

// Swap 替换轮转器并关闭旧实例。
func (s *liveSink) Swap(r xrotate.Rotator) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return r.Close()
	}
	old := s.r
	s.r = r
	s.mu.Unlock()
	return old.Close()
}

// Sweep 对当前轮转器执行归档清理，非归档后端时为空操作。
func (s *liveSink) Sweep() (int, error) {
	s.mu.Lock()
	f, ok := s.r.(*xrotate.File)
	closed := s.closed
	s.mu.Unlock()
	if closed || !ok {
		return 0, nil
	}
	// File 自带路径锁，无需持有 s.mu
	n, err := f.Sweep()
	if errors.Is(err, xrotate.ErrClosed) {
		// 与 Swap 并发时旧实例可能已关闭
		return n, nil
	}
	return n, err
}

func (s *liveSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.r.Close()
}

func runPipe(ctx context.Context, cmd *cli.Command) (err error) {
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	watch := cmd.Bool("watch")
	if watch && env.cfg == nil {
		return newUsageError("--watch 需要通过 --config 指定配置文件")
	}
	sweepSpec := cmd.String("sweep")
	if sweepSpec != "" {
		if err := xrun.ParseSchedule(sweepSpec); err != nil {
			return newUsageError("%v", err)
		}
	}

	r, err := env.open()
	if err != nil {
		return err
	}
	sink := &liveSink{r: r}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	services := []func(context.Context) error{
		func(ctx context.Context) error {
			return pipeLines(ctx, cmd.Root().Reader, sink)
		},
	}
	if watch {
		w, err := xconf.Watch(env.cfg, reloadCallback(cmd, env, sink))
		if err != nil {
			return err
		}
		services = append(services, w.Run)
	}
	if sweepSpec != "" {
		services = append(services, xrun.Cron(sweepSpec, func(context.Context) error {
			n, err := sink.Sweep()
			if n > 0 {
				env.logger.Info(ctx, "swept archives", xlog.Count(int64(n)))
			}
			return err
		}, func(err error) {
			env.logger.Warn(ctx, "sweep failed", xlog.Err(err))
		}))
	}

	err = xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithName("xsinkctl-pipe"),
		xrun.WithLogger(env.logger),
	}, services...)
	if errors.Is(err, xrun.ErrSignal) {
		return nil
	}
	return err
}

// pipeLines 逐行读取 in 写入 sink。EOF 时返回 [xrun.ErrStopped] 以结束整个服务组。
//
// 读取在独立 goroutine 中进行：标准输入的阻塞读无法被 ctx 取消，
// 收到信号时 pipeLines 先行返回，读取 goroutine 随进程退出。
func pipeLines(ctx context.Context, in io.Reader, sink *liveSink) error {
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- sc.Err()
	}()

	for {
		select {
		case line := <-lines:
			if err := sink.WriteLine(line); err != nil {
				return err
			}
		case err := <-done:
			if err != nil {
				return err
			}
			return xrun.ErrStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reloadCallback 配置变更后以新配置重新打开轮转器。重载失败时保留当前实例。
func reloadCallback(cmd *cli.Command, env *sinkEnv, sink *liveSink) xconf.WatchCallback {
	return func(cfg xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			env.logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		fc, err := resolveFileConfig(cmd, cfg)
		if err != nil {
			env.logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		next := &sinkEnv{cfg: cfg, fc: fc, logger: env.logger}
		r, err := next.open()
		if err != nil {
			env.logger.Warn(ctx, "reopen sink failed", xlog.Err(err))
			return
		}
		if err := sink.Swap(r); err != nil {
			env.logger.Warn(ctx, "close previous sink failed", xlog.Err(err))
		}
		env.logger.Info(ctx, "sink reopened", xlog.Path(fc.File))
	}
}
