package xrotate

import (
	"cmp"
	"slices"
	"time"
)

// Evict 计算为新归档腾出空间需要删除的条目。纯函数，不访问文件系统。
//
// CountBound: 条目数达到 MaxArchiveCount 时，只保留 index 最小的
// MaxArchiveCount-1 个（index 相同时保留时间较新的）。对 1..N 的规范序列，
// 这恰好删除 index 为 N 的条目。
//
// AgeBound: 删除 |now - Timestamp| > MaxArchiveAge 的条目。
// 时间标签在未来的条目同样按差值绝对值判断。
//
// keep 按 index 升序返回。
func Evict(entries []Entry, cfg Config, now time.Time) (keep, drop []Entry) {
	return evict(entries, cfg, now, 1)
}

// evict 为 room 个新条目腾出空间。room 为 0 时只恢复上限，用于 Sweep。
func evict(entries []Entry, cfg Config, now time.Time, room int) (keep, drop []Entry) {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, compareEntries)

	switch cfg.Retention {
	case AgeBound:
		for _, e := range sorted {
			if absDuration(now.Sub(e.Timestamp)) > cfg.MaxArchiveAge {
				drop = append(drop, e)
			} else {
				keep = append(keep, e)
			}
		}
	default:
		limit := max(cfg.MaxArchiveCount-room, 0)
		if len(sorted) <= limit {
			return sorted, nil
		}
		keep, drop = sorted[:limit:limit], sorted[limit:]
	}
	return keep, drop
}

// compareEntries index 升序，index 相同时时间较新的在前。
func compareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return b.Timestamp.Compare(a.Timestamp)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
