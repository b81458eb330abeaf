package xrun

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Ticker 返回按固定间隔执行 fn 的服务。immediate 为 true 时先立即执行一次。
// fn 返回错误时服务退出并返回该错误。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// cronParser 标准五段表达式，外加 @every / @hourly 等描述符。
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule 校验 cron 表达式。
func ParseSchedule(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return nil
}

// Cron 返回按 cron 表达式执行 fn 的服务。
//
// 前一次执行未结束时跳过本次触发。fn 的错误通过 onErr 报告（可为 nil），
// 不会终止服务。服务在 ctx 结束后等待进行中的执行完成再返回。
func Cron(spec string, fn func(ctx context.Context) error, onErr func(error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		c := cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
		if _, err := c.AddFunc(spec, func() {
			if err := fn(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
		}
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		return ctx.Err()
	}
}

// WaitForDone 返回阻塞到 ctx 结束的服务。
func WaitForDone() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}
