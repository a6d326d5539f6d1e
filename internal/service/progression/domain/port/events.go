package port

import (
	"context"

	"inkverse/internal/service/progression/domain"
)

// EventPublisher 把成长事件推送到消息总线，由 push-gateway 投递给在线用户
type EventPublisher interface {
	PublishLevelUp(ctx context.Context, event *domain.LevelUp) error
	PublishRewardClaimed(ctx context.Context, event *domain.RewardClaimed) error
	PublishChapterUnlocked(ctx context.Context, event *domain.ChapterUnlocked) error
}
