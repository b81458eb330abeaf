package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// keyLockImpl 是 Locker 的分片实现。
type keyLockImpl struct {
	shards   []shard
	mask     uint64
	maxKeys  int64
	closed   atomic.Bool
	keyCount atomic.Int64
	done     chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

// lockEntry 是单个 key 的锁条目。
// ch 容量为 1：发送成功即持有，接收即释放。
type lockEntry struct {
	ch chan struct{}
	// refcnt 统计持有者与等待者，归零时从 map 删除。
	// 只在所属分片的 mu 下修改。
	refcnt int32
}

type handle struct {
	kl    *keyLockImpl
	key   string
	entry *lockEntry
	done  atomic.Bool
}

func newKeyLockImpl(opts *options) *keyLockImpl {
	shards := make([]shard, opts.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*lockEntry)
	}
	return &keyLockImpl{
		shards:  shards,
		mask:    uint64(opts.shardCount - 1),
		maxKeys: int64(opts.maxKeys),
		done:    make(chan struct{}),
	}
}

func (kl *keyLockImpl) getShard(key string) *shard {
	return &kl.shards[xxhash.Sum64String(key)&kl.mask]
}

// ref 获取或创建 key 的条目并增加引用计数。
func (kl *keyLockImpl) ref(key string) (*lockEntry, error) {
	s := kl.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if kl.closed.Load() {
		return nil, ErrClosed
	}

	e, ok := s.entries[key]
	if !ok {
		if kl.maxKeys > 0 {
			// CAS 防止跨分片并发突破上限
			for {
				cur := kl.keyCount.Load()
				if cur >= kl.maxKeys {
					return nil, ErrMaxKeysExceeded
				}
				if kl.keyCount.CompareAndSwap(cur, cur+1) {
					break
				}
			}
		} else {
			kl.keyCount.Add(1)
		}
		e = &lockEntry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refcnt++
	return e, nil
}

func (kl *keyLockImpl) unref(key string, e *lockEntry) {
	s := kl.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refcnt--
	if e.refcnt == 0 {
		delete(s.entries, key)
		kl.keyCount.Add(-1)
	}
}

func (kl *keyLockImpl) Acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if kl.closed.Load() {
		return nil, ErrClosed
	}
	e, err := kl.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, entry: e}, nil
	case <-ctx.Done():
		kl.unref(key, e)
		return nil, ctx.Err()
	case <-kl.done:
		kl.unref(key, e)
		return nil, ErrClosed
	}
}

func (kl *keyLockImpl) TryAcquire(key string) (Handle, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if kl.closed.Load() {
		return nil, ErrClosed
	}
	e, err := kl.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{kl: kl, key: key, entry: e}, nil
	default:
		kl.unref(key, e)
		return nil, ErrLockOccupied
	}
}

func (kl *keyLockImpl) Len() int {
	return int(max(kl.keyCount.Load(), 0))
}

func (kl *keyLockImpl) Keys() []string {
	keys := make([]string, 0, kl.Len())
	for i := range kl.shards {
		s := &kl.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

func (kl *keyLockImpl) Close() error {
	if !kl.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(kl.done)
	return nil
}

func (h *handle) Unlock() error {
	if !h.done.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.entry.ch
	h.kl.unref(h.key, h.entry)
	return nil
}

func (h *handle) Key() string {
	return h.key
}

var (
	_ Locker = (*keyLockImpl)(nil)
	_ Handle = (*handle)(nil)
)
