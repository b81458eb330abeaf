package xflock

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/var/log", ".app.log.lock"), SidecarPath("/var/log/app.log"))
	assert.Equal(t, ".app.log.lock", SidecarPath("app.log"))
}

func TestNew(t *testing.T) {
	t.Run("空路径", func(t *testing.T) {
		_, err := New("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("父目录不存在", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing", ".x.lock"))
		assert.Error(t, err)
	})

	t.Run("创建锁文件", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), ".app.log.lock")
		l, err := New(p)
		require.NoError(t, err)
		defer l.Close()

		_, err = os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, p, l.Path())
	})
}

func TestLockUnlock(t *testing.T) {
	l, err := New(filepath.Join(t.TempDir(), ".lock"))
	require.NoError(t, err)

	assert.ErrorIs(t, l.Unlock(), ErrNotLocked)
	require.NoError(t, l.Lock())
	require.NoError(t, l.Unlock())
	assert.ErrorIs(t, l.Unlock(), ErrNotLocked)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), ErrClosed)
	assert.ErrorIs(t, l.Lock(), ErrClosed)
	_, err = l.TryLock()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, l.Unlock(), ErrClosed)
}

// 两个独立的文件描述符之间互斥，等价于两个进程争用同一锁文件。
func TestTryLockContention(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("platform without advisory file locks")
	}
	p := filepath.Join(t.TempDir(), ".lock")
	a, err := New(p)
	require.NoError(t, err)
	defer a.Close()
	b, err := New(p)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Lock())

	ok, err := b.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	acquired := make(chan struct{})
	go func() {
		_ = b.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("b acquired lock while a holds it")
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, a.Unlock())
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("b did not acquire lock after a released it")
	}
	require.NoError(t, b.Unlock())
}

func TestCloseReleasesLock(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".lock")
	a, err := New(p)
	require.NoError(t, err)
	require.NoError(t, a.Lock())
	require.NoError(t, a.Close())

	b, err := New(p)
	require.NoError(t, err)
	defer b.Close()
	ok, err := b.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock())
}
