// Package xmetrics 提供统一的观测接口（tracing + metrics）。
//
// 组件只依赖 [Observer] / [Span] 接口，默认实现基于 OpenTelemetry：
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xrotate",
//		Operation: "rotate",
//	})
//	defer span.End(xmetrics.Result{Err: err, Bytes: n})
//
// # 指标
//
//   - xsink.operation.total     计数，属性 component / operation / status
//   - xsink.operation.duration  直方图（秒），属性同上
//   - xsink.operation.bytes     计数，仅在 Result.Bytes > 0 时记录
//
// 未配置 Observer 时使用 [NoopObserver]，没有任何开销。
package xmetrics
