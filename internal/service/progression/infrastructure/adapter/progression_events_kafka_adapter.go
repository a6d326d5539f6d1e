package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"inkverse/internal/pkg/mq"
	"inkverse/internal/service/progression/domain"
)

// ProgressionEventsKafkaAdapter 是 port.EventPublisher 的 Kafka 实现，
// 以 userID 作为消息 key，保证同一用户的事件有序
type ProgressionEventsKafkaAdapter struct {
	writer *kafka.Writer
	now    func() time.Time
}

func NewProgressionEventsKafkaAdapter(writer *kafka.Writer) *ProgressionEventsKafkaAdapter {
	return &ProgressionEventsKafkaAdapter{writer: writer, now: time.Now}
}

func (a *ProgressionEventsKafkaAdapter) PublishLevelUp(ctx context.Context, event *domain.LevelUp) error {
	return a.publish(ctx, domain.LevelUpEventType, event.UserID, a.now(), event)
}

func (a *ProgressionEventsKafkaAdapter) PublishRewardClaimed(ctx context.Context, event *domain.RewardClaimed) error {
	return a.publish(ctx, domain.RewardClaimedEventType, event.UserID, event.ClaimedAt, event)
}

func (a *ProgressionEventsKafkaAdapter) PublishChapterUnlocked(ctx context.Context, event *domain.ChapterUnlocked) error {
	return a.publish(ctx, domain.ChapterUnlockedEventType, event.UserID, a.now(), event)
}

func (a *ProgressionEventsKafkaAdapter) publish(ctx context.Context, eventType, userID string, occurredAt time.Time, event any) error {
	payload, err := mq.Encode(eventType, occurredAt, event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(userID), payload); err != nil {
		return fmt.Errorf("failed to produce %s event: %w", eventType, err)
	}
	return nil
}
