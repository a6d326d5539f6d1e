package port

import (
	"context"

	"inkverse/internal/service/commerce/domain"
)

// EventPublisher 把订单事件发送到消息总线
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error
}
