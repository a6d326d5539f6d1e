package port

import (
	"context"

	"inkverse/internal/service/progression/domain"
)

// ChapterRepository 是章节目录与解锁记录的存储接口
type ChapterRepository interface {
	// ListChapters 按编号升序返回漫画的全部章节
	ListChapters(ctx context.Context, comicID string) ([]domain.Chapter, error)
	GetUnlockedSet(ctx context.Context, userID, comicID string) (domain.UnlockedSet, error)
	HasFullPurchase(ctx context.Context, userID, comicID string) (bool, error)
	// CommitUnlock 在同一个事务里扣减金币（带版本检查）并写入解锁记录，
	// 重复解锁返回 ErrAlreadyUnlocked
	CommitUnlock(ctx context.Context, p domain.UserProfile, chapter domain.Chapter) (domain.UserProfile, error)
}
