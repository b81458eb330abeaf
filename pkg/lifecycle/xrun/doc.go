// Package xrun 管理一组长期运行的 goroutine 的生命周期。
//
// 基于 errgroup：任意一个服务返回错误即取消其余服务，[Group.Wait] 返回第一个错误。
// [Run] 额外注册信号处理，收到 SIGINT/SIGTERM 等信号时取消整组，
// 此时 Wait 返回 [*SignalError]（errors.Is(err, ErrSignal) 为 true）。
// 服务返回 [ErrStopped] 可主动结束整组，例如输入流读取完毕。
//
// 常用服务构造器：
//
//   - [Ticker]: 固定间隔执行
//   - [Cron]: 按 cron 表达式执行（robfig/cron/v3）
//   - [WaitForDone]: 阻塞到 ctx 结束
//
// 示例：
//
//	err := xrun.Run(ctx,
//		pipe.Run,
//		xrun.Cron("@every 1m", sweep, nil),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//		err = nil
//	}
package xrun
