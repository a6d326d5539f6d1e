package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/service/commerce/domain"
	"inkverse/internal/service/commerce/domain/port"
)

// CheckoutContext 在 Saga 流程中传递上下文数据。
// 所有外部依赖都是抽象接口。
type CheckoutContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer
	Now    func() time.Time

	// 结算时读取到的实时商品快照，按商品 ID 索引
	Products map[string]*domain.Product

	Stock     port.FlashSaleStock
	Vouchers  port.VoucherRepository
	OrderRepo domain.OrderRepository
	Publisher port.EventPublisher

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 以后进先出的顺序登记补偿操作
func (c *CheckoutContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

func (c *CheckoutContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().Str("order", c.Order.ID).Msgf("Executing %d compensation functions.", len(c.compensations))
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(checkoutCtx *CheckoutContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(checkoutCtx *CheckoutContext) error {
	if h.next != nil {
		return h.next.Handle(checkoutCtx)
	}
	return nil
}
