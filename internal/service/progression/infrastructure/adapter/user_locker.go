package adapter

import (
	"context"
	"sync"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/zookeeper"
)

// ZookeeperUserLocker 用 ZooKeeper 分布式锁串行化跨实例的同一用户写操作
type ZookeeperUserLocker struct {
	conn *zookeeper.Conn
}

func NewZookeeperUserLocker(conn *zookeeper.Conn) *ZookeeperUserLocker {
	return &ZookeeperUserLocker{conn: conn}
}

func (l *ZookeeperUserLocker) Lock(ctx context.Context, userID string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, "profile-"+userID)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to release profile lock.")
		}
	}, nil
}

// LocalUserLocker 是单实例部署时的进程内按用户加锁实现，锁在无人等待时回收
type LocalUserLocker struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalUserLocker() *LocalUserLocker {
	return &LocalUserLocker{locks: make(map[string]*userLock)}
}

func (l *LocalUserLocker) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.ch
			l.release(userID, ul)
		})
	}, nil
}

func (l *LocalUserLocker) release(userID string, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}
