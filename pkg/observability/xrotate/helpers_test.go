package xrotate

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xsink/pkg/observability/xlog"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

// testOptions 测试默认选项：UTC 时区、丢弃日志。
func testOptions(opts ...Option) []Option {
	return append([]Option{WithLocation(time.UTC), WithLogger(xlog.Discard())}, opts...)
}

func newTestFile(t *testing.T, opts ...Option) *File {
	t.Helper()
	f, err := New(filepath.Join(t.TempDir(), "app.log"), testOptions(opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// seedEntry 在归档目录中写入一个合法的归档文件，返回文件名。
func seedEntry(t *testing.T, dir, base string, ts time.Time, index int, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	data, err := DefaultCompressor().Compress([]byte(content))
	require.NoError(t, err)
	name := EntryName(base, ts, index, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	return name
}

// listNames 返回目录中的全部文件名（含隐藏文件），排序后返回。
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names
}

// gunzipFile 用标准库解压，验证归档是标准 gzip。
func gunzipFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func indexes(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Index
	}
	return out
}

func mkEntry(prefix string, ts time.Time, index int) Entry {
	label := FormatTimestamp(ts, time.UTC)
	return Entry{Prefix: prefix, Label: label, Timestamp: ts.UTC().Truncate(time.Second)}.withIndex(index)
}
