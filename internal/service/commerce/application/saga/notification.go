package saga

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/service/commerce/domain"
)

// NotificationHandler 是 Saga 流程的最后一步，负责发布订单事件。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(attribute.String("messaging.system", "kafka"))

	// 发送通知失败是非关键路径的失败，订单已经生效，只记录告警。
	event := domain.NewOrderPlaced(uuid.NewString(), checkoutCtx.Order)
	if err := checkoutCtx.Publisher.PublishOrderPlaced(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", checkoutCtx.Order.ID).Msg("WARN: failed to publish order placed event")
		span.RecordError(err)
	}

	return h.executeNext(checkoutCtx)
}
