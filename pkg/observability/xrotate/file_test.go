package xrotate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xsink/pkg/util/xflock"
)

// ============================================================================
// 构造
// ============================================================================

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "app.log")

	tests := []struct {
		name    string
		path    string
		opts    []Option
		wantErr error
	}{
		{"空路径", "", nil, ErrEmptyFilename},
		{"无扩展名", filepath.Join(dir, "app"), nil, ErrInvalidFilename},
		{"大小为 0", good, []Option{WithMaxActiveSize(0)}, ErrInvalidMaxSize},
		{"数量为 0", good, []Option{WithMaxArchiveCount(0)}, ErrInvalidMaxCount},
		{"AgeBound 时长为 0", good, []Option{WithRetention(AgeBound), WithMaxArchiveAge(0)}, ErrInvalidMaxAge},
		{"未知策略", good, []Option{WithRetention(RetentionMode(9))}, ErrInvalidRetention},
		{"非法权限位", good, []Option{WithFileMode(os.ModeSetuid | 0o644)}, ErrInvalidFileMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.path, testOptions(tt.opts...)...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("路径穿越", func(t *testing.T) {
		_, err := New("../../etc/app.log", testOptions()...)
		require.Error(t, err)
	})

	t.Run("nil 选项被忽略", func(t *testing.T) {
		f, err := New(good, append(testOptions(), nil)...)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	})
}

func TestNew_Defaults(t *testing.T) {
	f := newTestFile(t)
	cfg := f.Config()
	assert.Equal(t, DefaultMaxActiveSize, cfg.MaxActiveSize)
	assert.Equal(t, CountBound, cfg.Retention)
	assert.Equal(t, DefaultMaxArchiveCount, cfg.MaxArchiveCount)
	assert.Equal(t, DefaultMaxArchiveAge, cfg.MaxArchiveAge)
	assert.False(t, cfg.SyncAfterEachWrite)
	assert.True(t, cfg.ProcessLock)
	assert.Equal(t, strings.TrimSuffix(f.Path(), ".log"), f.ArchiveDir())

	// 延迟创建
	assert.NoFileExists(t, f.Path())
	assert.NoDirExists(t, f.ArchiveDir())
}

// ============================================================================
// 写入
// ============================================================================

func TestFile_WriteLine(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.WriteLine("first"))
	require.NoError(t, f.WriteLine("第二行"))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "first\n第二行\n", string(data))
}

func TestFile_WriteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "app.log")
	f, err := New(path, testOptions(WithSyncAfterEachWrite(true))...)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.FileExists(t, path)
	assert.FileExists(t, xflock.SidecarPath(path))
}

func TestFile_WriteFailure(t *testing.T) {
	root := t.TempDir()
	// 父目录位置被普通文件占用
	require.NoError(t, os.WriteFile(filepath.Join(root, "blocked"), nil, 0o600))
	f, err := New(filepath.Join(root, "blocked", "app.log"), testOptions(WithProcessLock(false))...)
	require.NoError(t, err)
	defer f.Close()

	err = f.WriteLine("x")
	assert.ErrorIs(t, err, ErrIOFailure)
}

// TestFile_SixMiBScenario 5 MiB 阈值下写入 6 MiB，恰好轮转一次。
func TestFile_SixMiBScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("writes 6 MiB")
	}
	f := newTestFile(t, WithMaxArchiveCount(3))
	line := strings.Repeat("a", 4095) // 加换行 4096 字节

	const total = 6 * 1024 * 1024
	for written := 0; written < total; written += len(line) + 1 {
		require.NoError(t, f.WriteLine(line))
	}

	entries, err := f.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, []string{entries[0].Name}, listNames(t, f.ArchiveDir()))

	archived := gunzipFile(t, filepath.Join(f.ArchiveDir(), entries[0].Name))
	assert.Greater(t, int64(len(archived)), DefaultMaxActiveSize)

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, int64(total), int64(len(archived))+info.Size(), "no bytes lost")
	assert.Less(t, info.Size(), DefaultMaxActiveSize)
}

func TestFile_ThresholdTriggersRotation(t *testing.T) {
	f := newTestFile(t, WithMaxActiveSize(10), WithMaxArchiveCount(5))

	require.NoError(t, f.WriteLine("123456789")) // 10 字节，不触发
	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, f.WriteLine("x")) // 12 字节，触发
	entries, err = f.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NoFileExists(t, f.Path())
	assert.Equal(t, "123456789\nx\n", string(gunzipFile(t, filepath.Join(f.ArchiveDir(), entries[0].Name))))
}

func TestFile_SingleArchiveDisablesAutoRotation(t *testing.T) {
	f := newTestFile(t, WithMaxActiveSize(4), WithMaxArchiveCount(1))
	for range 10 {
		require.NoError(t, f.WriteLine("grow"))
	}
	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// 手动轮转仍然可用，只保留一个归档
	require.NoError(t, f.Rotate())
	require.NoError(t, f.WriteLine("again"))
	require.NoError(t, f.Rotate())
	entries, err = f.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "again\n", string(gunzipFile(t, filepath.Join(f.ArchiveDir(), entries[0].Name))))
}

// TestFile_DotPrefixedActiveFile 活动文件名以 "." 开头时，归档同样参与淘汰与移位。
func TestFile_DotPrefixedActiveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".app.log")
	f, err := New(path, testOptions(WithMaxArchiveCount(3))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	// 残留的临时文件不算归档
	require.NoError(t, os.MkdirAll(f.ArchiveDir(), 0o750))
	stale := ".app-2024-01-01 00:00:00-1.gz.123" + tempSuffix
	require.NoError(t, os.WriteFile(filepath.Join(f.ArchiveDir(), stale), []byte("partial"), 0o600))

	for i := range 5 {
		require.NoError(t, f.WriteLine(fmt.Sprintf("round %d", i)))
		require.NoError(t, f.Rotate())
	}

	entries, err := f.Entries()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, indexes(entries))
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.Name, ".app-"), e.Name)
	}
	assert.Equal(t, "round 4\n", string(gunzipFile(t, filepath.Join(f.ArchiveDir(), entries[0].Name))))
	assert.Equal(t, "round 2\n", string(gunzipFile(t, filepath.Join(f.ArchiveDir(), entries[2].Name))))
	assert.Len(t, listNames(t, f.ArchiveDir()), 4, "three entries plus the stale temp file")

	n, err := f.Sweep()
	require.NoError(t, err)
	assert.Zero(t, n)
}

// TestFile_RotationFailureNotReported 轮转失败不影响写入结果，活动文件继续增长。
func TestFile_RotationFailureNotReported(t *testing.T) {
	f := newTestFile(t, WithMaxActiveSize(4))
	// 归档目录位置被普通文件占用
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o750))
	require.NoError(t, os.WriteFile(f.ArchiveDir(), nil, 0o600))

	require.NoError(t, f.WriteLine("first line"))
	require.NoError(t, f.WriteLine("second line"))
	assert.Equal(t, StageAborted, f.Archiver().Stage())

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", string(data))

	_, err = f.RotateResult()
	assert.ErrorIs(t, err, ErrIOFailure)
}

// ============================================================================
// 手动操作
// ============================================================================

func TestFile_RotateMissingActiveIsNoop(t *testing.T) {
	f := newTestFile(t)
	res, err := f.RotateResult()
	require.NoError(t, err)
	assert.False(t, res.Rotated)
}

func TestFile_DeleteActiveFile(t *testing.T) {
	f := newTestFile(t)

	// 从未存在
	require.NoError(t, f.DeleteActiveFile())

	require.NoError(t, f.WriteLine("a"))
	require.NoError(t, f.Rotate())
	require.NoError(t, f.WriteLine("b"))
	require.NoError(t, f.DeleteActiveFile())
	assert.NoFileExists(t, f.Path())

	// 不触碰归档
	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// 再次删除仍然成功
	require.NoError(t, f.DeleteActiveFile())
}

func TestFile_DeleteActiveFileFailure(t *testing.T) {
	f := newTestFile(t, WithProcessLock(false))
	// 活动文件位置是非空目录，无法删除
	require.NoError(t, os.MkdirAll(filepath.Join(f.Path(), "child"), 0o750))
	assert.ErrorIs(t, f.DeleteActiveFile(), ErrIOFailure)
}

func TestFile_Sweep(t *testing.T) {
	f := newTestFile(t, WithRetention(AgeBound), WithMaxArchiveAge(time.Hour))
	now := time.Now()
	seedEntry(t, f.ArchiveDir(), "app", now.Add(-10*time.Minute), 1, "keep")
	seedEntry(t, f.ArchiveDir(), "app", now.Add(-2*time.Hour), 2, "drop")
	seedEntry(t, f.ArchiveDir(), "app", now.Add(-3*time.Hour), 3, "drop")

	n, err := f.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := f.Entries()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indexes(entries))
}

// ============================================================================
// 关闭
// ============================================================================

func TestFile_Close(t *testing.T) {
	f, err := New(filepath.Join(t.TempDir(), "app.log"), testOptions()...)
	require.NoError(t, err)
	require.NoError(t, f.WriteLine("x"))

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	assert.ErrorIs(t, f.WriteLine("y"), ErrClosed)
	assert.ErrorIs(t, f.Rotate(), ErrClosed)
	assert.ErrorIs(t, f.DeleteActiveFile(), ErrClosed)
	_, err = f.Sweep()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Entries()
	assert.ErrorIs(t, err, ErrClosed)

	// 关闭不删除数据
	assert.FileExists(t, f.Path())
}

// ============================================================================
// 并发
// ============================================================================

// TestFile_ConcurrentWriters 多个 goroutine、多个实例写同一路径，行不交错且不丢失。
func TestFile_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	const (
		writers = 8
		perW    = 200
	)

	files := make([]*File, 2)
	for i := range files {
		f, err := New(path, testOptions(WithMaxActiveSize(2048), WithMaxArchiveCount(1000))...)
		require.NoError(t, err)
		files[i] = f
		t.Cleanup(func() { _ = f.Close() })
	}

	var g errgroup.Group
	for w := range writers {
		f := files[w%len(files)]
		g.Go(func() error {
			for i := range perW {
				if err := f.WriteLine(fmt.Sprintf("writer=%02d seq=%04d %s", w, i, strings.Repeat("p", 32))); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	entries, err := files[0].Entries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	seen := make(map[int]bool)
	var all bytes.Buffer
	for _, e := range entries {
		assert.False(t, seen[e.Index], "duplicate index %d", e.Index)
		seen[e.Index] = true
		all.Write(gunzipFile(t, filepath.Join(files[0].ArchiveDir(), e.Name)))
	}
	if data, err := os.ReadFile(path); err == nil {
		all.Write(data)
	}

	lines := 0
	sc := bufio.NewScanner(&all)
	for sc.Scan() {
		line := sc.Text()
		require.Regexp(t, `^writer=\d{2} seq=\d{4} p{32}$`, line)
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, writers*perW, lines)
}
