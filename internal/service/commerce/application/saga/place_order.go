package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// PlaceOrderHandler 在资源全部预留后把订单持久化为 PLACED。
type PlaceOrderHandler struct {
	NextHandler
}

func (h *PlaceOrderHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.PlaceOrder")
	defer span.End()

	if err := checkoutCtx.Order.MarkAsPlaced(checkoutCtx.Now()); err != nil {
		span.RecordError(err)
		return err
	}
	if err := checkoutCtx.OrderRepo.Save(ctx, checkoutCtx.Order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save placed order")
		return fmt.Errorf("failed to save placed order: %w", err)
	}
	span.AddEvent("Placed order saved to DB.")

	return h.executeNext(checkoutCtx)
}
