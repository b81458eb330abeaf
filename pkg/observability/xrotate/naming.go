package xrotate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xsink/pkg/util/xfile"
)

// TimestampLayout 归档时间标签格式（yyyy-MM-dd HH:mm:ss）。
const TimestampLayout = "2006-01-02 15:04:05"

// archiveExt 归档文件扩展名
const archiveExt = ".gz"

// Entry 一个已解析的归档文件。
type Entry struct {
	// Name 文件名（不含目录）
	Name string
	// Prefix 时间标签之前的部分，通常是活动文件去掉扩展名后的基名
	Prefix string
	// Label 原始时间标签文本
	Label string
	// Timestamp Label 按配置时区解析的结果
	Timestamp time.Time
	// Index 序号，1 为最新
	Index int
}

// withIndex 返回同前缀、同标签、不同序号的归档。
func (e Entry) withIndex(index int) Entry {
	e.Index = index
	e.Name = entryName(e.Prefix, e.Label, index)
	return e
}

// FormatTimestamp 按 loc 格式化时间标签，loc 为 nil 时使用 time.Local。
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// ParseTimestamp 按 loc 解析时间标签，失败时返回的错误包装 [ErrNamingCorruption]。
func ParseTimestamp(label string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, label, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", ErrNamingCorruption, label, err)
	}
	return t, nil
}

// EntryName 返回归档文件名 "<base>-<timestamp>-<index>.gz"。
func EntryName(base string, t time.Time, index int, loc *time.Location) string {
	return entryName(base, FormatTimestamp(t, loc), index)
}

func entryName(prefix, label string, index int) string {
	return prefix + "-" + label + "-" + strconv.Itoa(index) + archiveExt
}

// ParseEntryName 解析归档文件名。
//
// 序号取最后一个 '-' 之后的部分，必须是正的十进制整数；时间标签是序号前
// 定长 19 个字符，其前必须是 '-' 和非空前缀。前缀本身可以包含 '-'。
// 任何不符合的情况返回包装 [ErrNamingCorruption] 的错误。
func ParseEntryName(name string, loc *time.Location) (Entry, error) {
	stem, ok := strings.CutSuffix(name, archiveExt)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q: missing %s suffix", ErrNamingCorruption, name, archiveExt)
	}

	dash := strings.LastIndexByte(stem, '-')
	if dash < 0 {
		return Entry{}, fmt.Errorf("%w: %q: missing index", ErrNamingCorruption, name)
	}
	index, err := parseIndex(stem[dash+1:])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %q: %w", ErrNamingCorruption, name, err)
	}

	rest := stem[:dash]
	labelStart := len(rest) - len(TimestampLayout)
	if labelStart < 2 || rest[labelStart-1] != '-' {
		return Entry{}, fmt.Errorf("%w: %q: missing timestamp", ErrNamingCorruption, name)
	}
	label := rest[labelStart:]
	ts, err := ParseTimestamp(label, loc)
	if err != nil {
		return Entry{}, fmt.Errorf("%q: %w", name, err)
	}

	return Entry{
		Name:      name,
		Prefix:    rest[:labelStart-1],
		Label:     label,
		Timestamp: ts,
		Index:     index,
	}, nil
}

// parseIndex 只接受纯数字，拒绝符号、空串和 0。
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty index")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("index %q is not a decimal number", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("index %q must be positive", s)
	}
	return n, nil
}

// ArchiveDir 返回活动文件对应的归档目录与归档前缀。
//
//	ArchiveDir("/var/log/app.log") // "/var/log/app", "app", nil
//
// 没有扩展名的路径返回 [ErrInvalidFilename]，因为归档目录会与活动文件重名。
func ArchiveDir(activePath string) (dir, base string, err error) {
	if activePath == "" {
		return "", "", ErrEmptyFilename
	}
	dir = xfile.Stem(activePath)
	if dir == activePath {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFilename, activePath)
	}
	return dir, filepath.Base(dir), nil
}
