package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/service/commerce/domain"
)

// FlashSaleReserveHandler 为按秒杀价计费的行预留库存，并登记归还补偿。
type FlashSaleReserveHandler struct {
	NextHandler
}

func (h *FlashSaleReserveHandler) Handle(checkoutCtx *CheckoutContext) error {
	lines := checkoutCtx.Order.FlashSaleLines()
	if len(lines) == 0 {
		return h.executeNext(checkoutCtx)
	}

	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.FlashSaleReserve")
	defer span.End()

	for _, line := range lines {
		product := checkoutCtx.Products[line.ProductID]
		if product == nil || product.FlashSale == nil {
			err := fmt.Errorf("flash-sale line %s has no live flash-sale snapshot", line.ProductID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "missing product snapshot")
			return err
		}

		ok, err := checkoutCtx.Stock.Reserve(ctx, line.ProductID, line.SaleQty, product.FlashSale.Limit, product.FlashSale.Sold)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Flash-sale stock service failed")
			return err
		}
		if !ok {
			span.SetAttributes(attribute.String("flashsale.exhausted.product", line.ProductID))
			span.SetStatus(codes.Error, domain.ErrStockChanged.Error())
			return fmt.Errorf("reserve %d of %s: %w", line.SaleQty, line.ProductID, domain.ErrStockChanged)
		}

		productID, qty := line.ProductID, line.SaleQty
		checkoutCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := checkoutCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseFlashSale")
			defer compSpan.End()
			compSpan.SetAttributes(attribute.String("product.id", productID), attribute.Int("quantity", qty))

			// 补偿失败需要记录严重错误，并可能需要人工介入
			if err := checkoutCtx.Stock.Release(compCtx, productID, qty); err != nil {
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).Str("product", productID).Msg("CRITICAL: failed to release flash-sale stock")
			}
		})
	}

	span.AddEvent("Flash-sale stock reserved")
	return h.executeNext(checkoutCtx)
}
