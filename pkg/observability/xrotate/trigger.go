package xrotate

// ShouldRotate 判断写入后的活动文件大小是否需要轮转。
//
// 仅当轮转在结构上可用（AgeBound，或 MaxArchiveCount > 1）时才比较大小；
// MaxArchiveCount 为 1 的 CountBound 配置永远不会自动轮转。
func ShouldRotate(size int64, cfg Config) bool {
	if !cfg.rotationEnabled() {
		return false
	}
	return size > cfg.MaxActiveSize
}

func (c Config) rotationEnabled() bool {
	return c.Retention == AgeBound || c.MaxArchiveCount > 1
}
