package xrotate

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

// RenameFunc 重命名函数。实现不应覆盖已存在的目标。
type RenameFunc func(oldpath, newpath string) error

// Shift 将 dir 中每个条目重命名为 index+1，为新归档空出 index 1。
//
// 从 index 最大的条目开始处理，目标 index 仍被占用（例如更高位的条目重命名失败）
// 时返回 [ErrShiftCollision] 并保留原位。单个条目失败不会中止其余条目，
// 所有失败通过 errors.Join 合并返回。
//
// shifted 是处理后的条目（失败的保留原 index），按 index 升序。
func Shift(dir string, entries []Entry, rename RenameFunc) (shifted []Entry, err error) {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return compareEntries(b, a) })

	occupied := make(map[int]int, len(sorted))
	for _, e := range sorted {
		occupied[e.Index]++
	}

	var errs []error
	for i, e := range sorted {
		next := e.withIndex(e.Index + 1)
		if occupied[next.Index] > 0 {
			errs = append(errs, fmt.Errorf("%w: %s -> index %d", ErrShiftCollision, e.Name, next.Index))
			continue
		}
		if rerr := rename(filepath.Join(dir, e.Name), filepath.Join(dir, next.Name)); rerr != nil {
			errs = append(errs, fmt.Errorf("rename %s: %w", e.Name, rerr))
			continue
		}
		occupied[e.Index]--
		occupied[next.Index]++
		sorted[i] = next
	}

	slices.SortStableFunc(sorted, compareEntries)
	return sorted, errors.Join(errs...)
}

// indexFree 报告 entries 中是否没有条目占用 index。
func indexFree(entries []Entry, index int) bool {
	return !slices.ContainsFunc(entries, func(e Entry) bool { return e.Index == index })
}
