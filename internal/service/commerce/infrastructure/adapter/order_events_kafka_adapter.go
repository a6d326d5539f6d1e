package adapter

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"inkverse/internal/pkg/mq"
	"inkverse/internal/service/commerce/domain"
)

const OrderPlacedEventType = "OrderPlaced"

// OrderEventsKafkaAdapter 是 port.EventPublisher 的 Kafka 实现
type OrderEventsKafkaAdapter struct {
	writer *kafka.Writer
}

func NewOrderEventsKafkaAdapter(writer *kafka.Writer) *OrderEventsKafkaAdapter {
	return &OrderEventsKafkaAdapter{writer: writer}
}

func (a *OrderEventsKafkaAdapter) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error {
	payload, err := mq.Encode(OrderPlacedEventType, event.PlacedAt, event)
	if err != nil {
		return fmt.Errorf("failed to marshal order placed event: %w", err)
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(event.UserID), payload); err != nil {
		return fmt.Errorf("failed to produce order placed event: %w", err)
	}
	return nil
}
