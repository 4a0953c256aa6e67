// internal/service/stock/infrastructure/adapter/locker.go
package adapter

import (
	"context"
	"sync"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/zookeeper"
)

// LocalLocker 是 port.Locker 的进程内实现。
// 单实例部署时用它就够了；多实例时请换 ZkLocker,
// 否则不同实例之间的并发变更仍然无法串行化。
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLockEntry
}

type localLockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker 创建一个进程内按 key 加锁的 Locker。
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*localLockEntry{}}
}

// Acquire 阻塞到拿到 key 对应的锁，或 ctx 被取消。
func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localLockEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, entry, true) })
	}, nil
}

// release 归还引用计数，没人等的 key 直接从表里摘掉，避免 map 无限增长。
func (l *LocalLocker) release(key string, entry *localLockEntry, held bool) {
	if held {
		<-entry.sem
	}
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// ZkLocker 是 port.Locker 的 ZooKeeper 实现，
// 多实例部署时提供跨进程的按商品串行化。
type ZkLocker struct {
	conn *zookeeper.Conn
}

// NewZkLocker 基于已建立的 ZooKeeper 会话创建 Locker。
func NewZkLocker(conn *zookeeper.Conn) *ZkLocker {
	return &ZkLocker{conn: conn}
}

// Acquire 获取 key 对应的分布式锁。
func (l *ZkLocker) Acquire(_ context.Context, key string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, key)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { _ = lock.Unlock() })
	}, nil
}
