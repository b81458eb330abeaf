package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newLocker(t *testing.T, opts ...Option) Locker {
	t.Helper()
	kl, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kl.Close() })
	return kl
}

// =============================================================================
// 基本获取与释放
// =============================================================================

func TestAcquireUnlock(t *testing.T) {
	kl := newLocker(t)

	h, err := kl.Acquire(context.Background(), "/var/log/app.log")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/app.log", h.Key())
	assert.Equal(t, 1, kl.Len())

	require.NoError(t, h.Unlock())
	assert.ErrorIs(t, h.Unlock(), ErrLockNotHeld)
	assert.Equal(t, 0, kl.Len())
	assert.Equal(t, "/var/log/app.log", h.Key())
}

func TestTryAcquire(t *testing.T) {
	kl := newLocker(t)

	h, err := kl.TryAcquire("a")
	require.NoError(t, err)

	h2, err := kl.TryAcquire("a")
	assert.Nil(t, h2)
	assert.ErrorIs(t, err, ErrLockOccupied)

	other, err := kl.TryAcquire("b")
	require.NoError(t, err)
	require.NoError(t, other.Unlock())

	require.NoError(t, h.Unlock())
	h3, err := kl.TryAcquire("a")
	require.NoError(t, err)
	require.NoError(t, h3.Unlock())
}

func TestInvalidArguments(t *testing.T) {
	kl := newLocker(t)

	_, err := kl.Acquire(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = kl.TryAcquire("")
	assert.ErrorIs(t, err, ErrInvalidKey)

	//nolint:staticcheck // 故意传 nil
	_, err = kl.Acquire(nil, "a")
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestAcquireContext(t *testing.T) {
	kl := newLocker(t)

	h, err := kl.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer func() { _ = h.Unlock() }()

	t.Run("已取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := kl.Acquire(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("等待超时", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := kl.Acquire(ctx, "k")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		// 等待者释放引用后只剩持有者
		assert.Equal(t, 1, kl.Len())
	})
}

// =============================================================================
// 配置
// =============================================================================

func TestNewShardCount(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"默认以外的合法值", 64, false},
		{"单分片", 1, false},
		{"上限", 1 << 16, false},
		{"零", 0, true},
		{"负数", -2, true},
		{"非2的幂", 3, true},
		{"超过上限", 1 << 17, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kl, err := New(WithShardCount(tt.n), nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShardCount)
				return
			}
			require.NoError(t, err)
			require.NoError(t, kl.Close())
		})
	}
}

func TestMaxKeys(t *testing.T) {
	kl := newLocker(t, WithMaxKeys(2))

	h1, err := kl.TryAcquire("a")
	require.NoError(t, err)
	h2, err := kl.TryAcquire("b")
	require.NoError(t, err)

	_, err = kl.TryAcquire("c")
	assert.ErrorIs(t, err, ErrMaxKeysExceeded)
	assert.ElementsMatch(t, []string{"a", "b"}, kl.Keys())

	require.NoError(t, h1.Unlock())
	h3, err := kl.TryAcquire("c")
	require.NoError(t, err)

	require.NoError(t, h2.Unlock())
	require.NoError(t, h3.Unlock())
}

// =============================================================================
// 关闭语义
// =============================================================================

func TestCloseWakesWaiters(t *testing.T) {
	kl, err := New()
	require.NoError(t, err)

	h, err := kl.Acquire(context.Background(), "k")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := kl.Acquire(context.Background(), "k")
		errCh <- err
	}()

	// 等待者进入阻塞
	require.Eventually(t, func() bool { return kl.Len() == 1 && len(kl.Keys()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, kl.Close())
	assert.ErrorIs(t, <-errCh, ErrClosed)
	assert.ErrorIs(t, kl.Close(), ErrClosed)

	_, err = kl.TryAcquire("x")
	assert.ErrorIs(t, err, ErrClosed)

	// 已持有的锁仍可释放
	require.NoError(t, h.Unlock())
	assert.Equal(t, 0, kl.Len())
}

// =============================================================================
// 并发互斥
// =============================================================================

func TestMutualExclusion(t *testing.T) {
	kl := newLocker(t, WithShardCount(4))

	const workers = 16
	const rounds = 200
	var inside atomic.Int32
	var violations atomic.Int32
	var total int

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				h, err := kl.Acquire(context.Background(), "/tmp/shared.log")
				if err != nil {
					violations.Add(1)
					return
				}
				if inside.Add(1) != 1 {
					violations.Add(1)
				}
				total++
				inside.Add(-1)
				_ = h.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, violations.Load())
	assert.Equal(t, workers*rounds, total)
	assert.Equal(t, 0, kl.Len())
}
