package infrastructure

import (
	"time"

	"inkverse/internal/service/commerce/domain"
)

// ToDomainProduct 将数据库模型转换为领域模型，只有在活动时间内的秒杀才会带出
func ToDomainProduct(model *ProductModel, now time.Time) *domain.Product {
	if model == nil {
		return nil
	}
	p := &domain.Product{
		ID:        model.ID,
		Name:      model.Name,
		BasePrice: model.BasePrice,
		IsDigital: model.IsDigital,
	}
	if flashSaleActive(model, now) {
		p.FlashSale = &domain.FlashSale{
			Price: model.FlashSalePrice,
			Limit: model.FlashSaleLimit,
			Sold:  model.FlashSaleSold,
		}
	}
	return p
}

func flashSaleActive(model *ProductModel, now time.Time) bool {
	if !model.FlashSaleEnabled {
		return false
	}
	if model.FlashSaleStartsAt != nil && now.Before(*model.FlashSaleStartsAt) {
		return false
	}
	if model.FlashSaleEndsAt != nil && now.After(*model.FlashSaleEndsAt) {
		return false
	}
	return true
}

// ToDomainVoucher 将数据库模型转换为领域模型
func ToDomainVoucher(model *VoucherModel) *domain.Voucher {
	if model == nil {
		return nil
	}
	return &domain.Voucher{
		Code:              model.Code,
		IsActive:          model.IsActive,
		DiscountType:      domain.DiscountType(model.DiscountType),
		DiscountValue:     model.DiscountValue,
		MinOrderValue:     model.MinOrderValue,
		MaxDiscountAmount: model.MaxDiscountAmount,
		StartDate:         model.StartDate,
		EndDate:           model.EndDate,
		UsageLimit:        model.UsageLimit,
		UsedCount:         model.UsedCount,
		OnePerUser:        model.OnePerUser,
		EligibilityRule:   model.EligibilityRule,
	}
}

// FromDomainOrder 将订单聚合转换为数据库模型 (用于插入和更新)
func FromDomainOrder(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		Total:       o.Total,
		VoucherCode: o.VoucherCode,
		State:       string(o.State),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, l := range o.Lines {
		model.Lines = append(model.Lines, OrderLineModel{
			OrderID:     o.ID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			SaleQty:     l.SaleQty,
			SalePrice:   l.SalePrice,
			NormalQty:   l.NormalQty,
			NormalPrice: l.NormalPrice,
		})
	}
	return model
}

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	o := &domain.Order{
		ID:          model.ID,
		UserID:      model.UserID,
		Subtotal:    model.Subtotal,
		Discount:    model.Discount,
		Total:       model.Total,
		VoucherCode: model.VoucherCode,
		State:       domain.State(model.State),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, l := range model.Lines {
		line := domain.LinePricing{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			SaleQty:     l.SaleQty,
			SalePrice:   l.SalePrice,
			NormalQty:   l.NormalQty,
			NormalPrice: l.NormalPrice,
			Mixed:       l.SaleQty > 0 && l.NormalQty > 0,
		}
		switch {
		case line.Mixed:
			line.StockExhausted = true
		case l.SaleQty > 0:
			line.UnitPrice = l.SalePrice
		default:
			line.UnitPrice = l.NormalPrice
		}
		o.Lines = append(o.Lines, line)
	}
	return o
}
