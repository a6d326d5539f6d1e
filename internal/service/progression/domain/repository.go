package domain

import "context"

// ProfileRepository 定义了用户档案的持久化接口
type ProfileRepository interface {
	// Load 档案不存在时返回 ErrProfileNotFound
	Load(ctx context.Context, userID string) (UserProfile, error)
	// Create 插入初始档案，已存在时返回已存在的档案
	Create(ctx context.Context, p UserProfile) (UserProfile, error)
	// Save 按 p.Version 做乐观锁更新，版本不一致时返回 ErrProfileChanged，
	// 成功后返回递增后的版本号
	Save(ctx context.Context, p UserProfile) (UserProfile, error)
}
