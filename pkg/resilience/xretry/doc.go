// Package xretry 为文件系统等短暂失败的操作提供有界重试。
//
// 底层使用 avast/retry-go/v5。Retryer 组合两种策略：
//
//   - [RetryPolicy]: 最大尝试次数与逐次判断（[FixedRetryPolicy]、[NeverRetryPolicy]）
//   - [BackoffPolicy]: 重试间隔（[FixedBackoff]、[ExponentialBackoff]）
//
// 用法：
//
//	r := xretry.NewRetryer(
//		xretry.WithRetryPolicy(xretry.NewFixedRetry(3)),
//		xretry.WithBackoffPolicy(xretry.NewFixedBackoff(10*time.Millisecond)),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error {
//		return os.Rename(from, to)
//	})
//
// # 错误分类
//
// 用 [NewPermanentError] 包装的错误立即终止重试；[NewTemporaryError] 与其他
// 未分类错误视为可重试。Do 只返回最后一次失败的错误，保留原始错误链。
package xretry
