package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"inkverse/internal/pkg/apperr"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/metrics"
	"inkverse/internal/service/commerce/application/saga"
	"inkverse/internal/service/commerce/domain"
	"inkverse/internal/service/commerce/domain/port"
)

// Features 是影响定价的运行时开关
type Features struct {
	FlashSale    bool
	VoucherRules bool
}

// Dependencies 是应用服务依赖的出站端口
type Dependencies struct {
	Catalog     port.CatalogReader
	Vouchers    port.VoucherRepository
	Orders      domain.OrderRepository
	Stock       port.FlashSaleStock
	Publisher   port.EventPublisher
	Eligibility port.EligibilityEvaluator
	Tracer      trace.Tracer

	// 以下为可选项
	Now      func() time.Time
	Features func() Features
}

// CommerceApplicationService 编排定价预览与结算流程，本身不持有状态。
type CommerceApplicationService struct {
	deps Dependencies
}

func NewCommerceApplicationService(deps Dependencies) *CommerceApplicationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Features == nil {
		deps.Features = func() Features { return Features{FlashSale: true, VoucherRules: true} }
	}
	return &CommerceApplicationService{deps: deps}
}

// PriceProduct 预览单个商品的定价
func (s *CommerceApplicationService) PriceProduct(ctx context.Context, productID string, quantity int) (*LineQuote, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.PriceProduct")
	defer span.End()

	products, lines, err := s.resolveLines(ctx, []LineRequest{{ProductID: productID, Quantity: quantity}})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	quote := toLineQuote(lines[0], products[0])
	return &quote, nil
}

// PreviewCart 计算购物车预览，不修改任何计数
func (s *CommerceApplicationService) PreviewCart(ctx context.Context, req *PreviewCartRequest) (*CartQuote, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.PreviewCart")
	defer span.End()

	products, lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	application, err := s.voucherApplication(ctx, req.UserID, req.VoucherCode)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	totals, err := domain.ComputeTotals(lines, application)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, l := range lines {
		if l.Mixed {
			metrics.MixedLines.Inc()
		}
	}
	if totals.VoucherInvalidated {
		metrics.VoucherRejections.WithLabelValues(totals.InvalidReason).Inc()
		span.AddEvent("voucher invalidated", trace.WithAttributes(attribute.String("reason", totals.InvalidReason)))
	}
	return toCartQuote(lines, products, totals), nil
}

// ApplyVoucher 校验券并返回优惠额。重复调用不会重复计数，使用次数只在结算时增加。
func (s *CommerceApplicationService) ApplyVoucher(ctx context.Context, req *ApplyVoucherRequest) (*ApplyVoucherResponse, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.ApplyVoucher")
	defer span.End()
	span.SetAttributes(attribute.String("voucher.code", req.Code))

	if req.Code == "" {
		return nil, apperr.Validation("voucher code is required")
	}
	_, lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	application, err := s.voucherApplication(ctx, req.UserID, req.Code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.Subtotal()
	}
	discount, err := application.Validate(lines, subtotal)
	if err != nil {
		if errors.Is(err, apperr.ErrRejected) {
			metrics.VoucherRejections.WithLabelValues(apperr.CodeOf(err)).Inc()
		}
		span.RecordError(err)
		return nil, err
	}
	return &ApplyVoucherResponse{
		Code:     req.Code,
		Subtotal: subtotal,
		Discount: discount,
		Total:    max(0, subtotal-discount),
	}, nil
}

// Checkout 基于实时库存和券状态重新计算价格，与客户端预览比对一致后才提交。
// 预览已过期时返回 STOCK_CHANGED / PRICE_CHANGED / VOUCHER_CHANGED 冲突，不会按新价格静默成交。
func (s *CommerceApplicationService) Checkout(ctx context.Context, req *CheckoutRequest) (resp *CheckoutResponse, err error) {
	ctx, span := s.deps.Tracer.Start(ctx, "app.Checkout")
	defer span.End()
	defer func() {
		result := "PLACED"
		if err != nil {
			result = apperr.CodeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		metrics.CheckoutTotal.WithLabelValues(result).Inc()
	}()

	if req.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if req.ExpectedTotal < 0 {
		return nil, apperr.Validation("expectedTotal must be >= 0")
	}

	// 1. 基于实时状态重新定价
	products, lines, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if err := compareWithPreview(lines, req.ExpectedLines); err != nil {
		return nil, err
	}
	application, err := s.voucherApplication(ctx, req.UserID, req.VoucherCode)
	if err != nil {
		return nil, err
	}
	totals, err := domain.ComputeTotals(lines, application)
	if err != nil {
		return nil, err
	}
	if totals.VoucherInvalidated {
		return nil, fmt.Errorf("%w: %s", domain.ErrVoucherChanged, totals.InvalidReason)
	}
	if totals.Total != req.ExpectedTotal {
		return nil, fmt.Errorf("%w: expected %d, now %d", domain.ErrPriceChanged, req.ExpectedTotal, totals.Total)
	}

	// 2. 创建订单实体并初始持久化
	order, err := domain.NewOrder(uuid.NewString(), req.UserID, lines, totals, req.VoucherCode, s.deps.Now())
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int64("order.total", order.Total))
	if err := s.deps.Orders.Save(ctx, order); err != nil {
		return nil, err
	}

	// 3. 执行责任链
	productIndex := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		productIndex[p.ID] = p
	}
	checkoutCtx := &saga.CheckoutContext{
		Ctx:       ctx,
		Order:     order,
		Tracer:    s.deps.Tracer,
		Now:       s.deps.Now,
		Products:  productIndex,
		Stock:     s.deps.Stock,
		Vouchers:  s.deps.Vouchers,
		OrderRepo: s.deps.Orders,
		Publisher: s.deps.Publisher,
	}
	if err := s.buildChain().Handle(checkoutCtx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order", order.ID).Msg("Checkout chain failed. SAGA compensation triggered.")
		checkoutCtx.TriggerCompensation(ctx)

		order.MarkAsFailed(s.deps.Now())
		if updateErr := s.deps.Orders.Save(ctx, order); updateErr != nil {
			logger.Ctx(ctx).Error().Err(updateErr).Str("order", order.ID).Msg("CRITICAL: failed to mark order as FAILED")
			span.RecordError(updateErr, trace.WithAttributes(attribute.Bool("critical.error", true)))
		}
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("order", order.ID).Int64("total", order.Total).Msg("Order placed.")
	return &CheckoutResponse{
		OrderID:  order.ID,
		State:    order.State,
		Subtotal: order.Subtotal,
		Discount: order.Discount,
		Total:    order.Total,
	}, nil
}

func (s *CommerceApplicationService) buildChain() saga.Handler {
	chain := new(saga.FlashSaleReserveHandler)
	chain.
		SetNext(new(saga.VoucherRedeemHandler)).
		SetNext(new(saga.PlaceOrderHandler)).
		SetNext(new(saga.NotificationHandler))
	return chain
}

// resolveLines 并发读取商品快照并逐行定价，返回的切片与请求行一一对应
func (s *CommerceApplicationService) resolveLines(ctx context.Context, reqs []LineRequest) ([]*domain.Product, []domain.LinePricing, error) {
	if len(reqs) == 0 {
		return nil, nil, apperr.Validation("cart must contain at least one line")
	}
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if r.ProductID == "" {
			return nil, nil, apperr.Validation("productId is required")
		}
		if seen[r.ProductID] {
			return nil, nil, apperr.Validation("product %s appears in more than one line", r.ProductID)
		}
		seen[r.ProductID] = true
		if r.Quantity < 1 {
			return nil, nil, apperr.Validation("quantity must be >= 1, got %d", r.Quantity)
		}
	}

	products := make([]*domain.Product, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			p, err := s.deps.Catalog.GetProduct(gctx, r.ProductID)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	flashSaleOn := s.deps.Features().FlashSale
	lines := make([]domain.LinePricing, len(reqs))
	for i, r := range reqs {
		if !flashSaleOn {
			products[i].FlashSale = nil
		}
		line, err := domain.ResolveLinePricing(products[i], r.Quantity)
		if err != nil {
			return nil, nil, err
		}
		lines[i] = line
	}
	return products, lines, nil
}

func (s *CommerceApplicationService) voucherApplication(ctx context.Context, userID, code string) (*domain.VoucherApplication, error) {
	if code == "" {
		return nil, nil
	}
	voucher, err := s.deps.Vouchers.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	history := domain.UsageHistory{}
	if userID != "" {
		if history, err = s.deps.Vouchers.UsageHistory(ctx, userID); err != nil {
			return nil, err
		}
	}

	application := &domain.VoucherApplication{
		Code:    code,
		Voucher: voucher,
		UserID:  userID,
		Now:     s.deps.Now(),
		History: history,
	}
	if s.deps.Eligibility != nil && s.deps.Features().VoucherRules {
		application.Eligibility = s.checkEligibility
	}
	return application, nil
}

func (s *CommerceApplicationService) checkEligibility(v *domain.Voucher, in domain.EligibilityInput) error {
	ok, err := s.deps.Eligibility.Evaluate(v.EligibilityRule, in)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotEligible
	}
	return nil
}

// compareWithPreview 检查实时拆分是否与客户端预览一致，expected 为空时跳过
func compareWithPreview(lines []domain.LinePricing, expected []LineQuote) error {
	if len(expected) == 0 {
		return nil
	}
	if len(expected) != len(lines) {
		return apperr.Validation("expectedLines does not match the cart lines")
	}
	for i, l := range lines {
		e := expected[i]
		if e.ProductID != l.ProductID || e.Quantity != l.Quantity {
			return apperr.Validation("expectedLines does not match the cart lines")
		}
		if e.SaleQty != l.SaleQty {
			return fmt.Errorf("%w: %s flash-sale units %d -> %d", domain.ErrStockChanged, l.ProductID, e.SaleQty, l.SaleQty)
		}
		if e.NormalPrice != l.NormalPrice || (l.SaleQty > 0 && e.SalePrice != l.SalePrice) {
			return fmt.Errorf("%w: %s", domain.ErrPriceChanged, l.ProductID)
		}
	}
	return nil
}
