package port

import "context"

// UserLocker 串行化同一用户的档案写操作，返回的函数用于释放锁
type UserLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}
