package xbreaker

// TripPolicy 判断熔断器是否应当打开。
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// ConsecutiveFailuresPolicy 连续失败达到阈值时打开。
type ConsecutiveFailuresPolicy struct {
	threshold uint32
}

// NewConsecutiveFailures 创建连续失败策略，threshold 为 0 时按 1 处理。
func NewConsecutiveFailures(threshold uint32) *ConsecutiveFailuresPolicy {
	return &ConsecutiveFailuresPolicy{threshold: max(threshold, 1)}
}

func (p *ConsecutiveFailuresPolicy) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.threshold
}

// Threshold 返回阈值。
func (p *ConsecutiveFailuresPolicy) Threshold() uint32 {
	return p.threshold
}

// FailureRatioPolicy 请求数达到 minRequests 后，失败率达到 ratio 时打开。
type FailureRatioPolicy struct {
	ratio       float64
	minRequests uint32
}

// NewFailureRatio 创建失败率策略。ratio 截断到 (0, 1]，minRequests 至少为 1。
func NewFailureRatio(ratio float64, minRequests uint32) *FailureRatioPolicy {
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return &FailureRatioPolicy{ratio: ratio, minRequests: max(minRequests, 1)}
}

func (p *FailureRatioPolicy) ReadyToTrip(counts Counts) bool {
	if counts.Requests < p.minRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= p.ratio
}

var (
	_ TripPolicy = (*ConsecutiveFailuresPolicy)(nil)
	_ TripPolicy = (*FailureRatioPolicy)(nil)
)
