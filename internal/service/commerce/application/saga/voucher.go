package saga

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/service/commerce/domain"
)

// VoucherRedeemHandler 在全局上限内记录一次券兑换，并登记撤销补偿。
type VoucherRedeemHandler struct {
	NextHandler
}

func (h *VoucherRedeemHandler) Handle(checkoutCtx *CheckoutContext) error {
	order := checkoutCtx.Order
	if order.VoucherCode == "" {
		return h.executeNext(checkoutCtx)
	}

	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.VoucherRedeem")
	defer span.End()
	span.SetAttributes(attribute.String("voucher.code", order.VoucherCode))

	ok, err := checkoutCtx.Vouchers.IncrementUsage(ctx, order.VoucherCode, order.UserID, order.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Voucher redemption failed")
		return err
	}
	if !ok {
		span.SetStatus(codes.Error, domain.ErrVoucherChanged.Error())
		return fmt.Errorf("redeem %s: %w", order.VoucherCode, domain.ErrVoucherChanged)
	}

	checkoutCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := checkoutCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseVoucher")
		defer compSpan.End()

		if err := checkoutCtx.Vouchers.DecrementUsage(compCtx, order.VoucherCode, order.UserID, order.ID); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).Str("voucher", order.VoucherCode).Msg("CRITICAL: failed to release voucher usage")
		}
	})

	span.AddEvent("Voucher usage recorded")
	return h.executeNext(checkoutCtx)
}
