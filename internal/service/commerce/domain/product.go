package domain

import (
	"math"

	"inkverse/internal/pkg/apperr"
)

// FlashSale 是按数量限购的秒杀价
type FlashSale struct {
	Price int64
	Limit int
	Sold  int
}

// Remaining 返回剩余的秒杀库存，不会小于 0
func (f FlashSale) Remaining() int {
	if f.Sold >= f.Limit {
		return 0
	}
	return f.Limit - f.Sold
}

// Product 是一次定价计算所用的商品快照，金额单位为整数货币单位
type Product struct {
	ID        string
	Name      string
	BasePrice int64
	IsDigital bool
	FlashSale *FlashSale
}

// DiscountPercent 返回展示用的秒杀折扣百分比，四舍五入（半数远离零）。
// 只影响展示，不影响实际收费。
func (p *Product) DiscountPercent() int {
	if p.FlashSale == nil || p.BasePrice <= 0 {
		return 0
	}
	pct := float64(p.BasePrice-p.FlashSale.Price) / float64(p.BasePrice) * 100
	return int(math.Round(pct))
}

// LinePricing 是单个购物车行的定价结果。
// 统一价时 Mixed 为 false，整行的数量记在 SaleQty 或 NormalQty 之一。
type LinePricing struct {
	ProductID      string
	Quantity       int
	Mixed          bool
	UnitPrice      int64
	SaleQty        int
	SalePrice      int64
	NormalQty      int
	NormalPrice    int64
	StockExhausted bool
}

// Subtotal 按价格分组累加
func (l LinePricing) Subtotal() int64 {
	return int64(l.SaleQty)*l.SalePrice + int64(l.NormalQty)*l.NormalPrice
}

// Note 返回需要展示给用户的提示
func (l LinePricing) Note() string {
	if l.StockExhausted {
		return "flash-sale stock exhausted mid-order"
	}
	return ""
}

// ResolveLinePricing 计算某商品购买 quantity 件时秒杀价与原价的拆分。
// 结果只是预览，结算时必须基于实时库存重新计算。
func ResolveLinePricing(product *Product, quantity int) (LinePricing, error) {
	if quantity < 1 {
		return LinePricing{}, apperr.Validation("quantity must be >= 1, got %d", quantity)
	}
	if product == nil {
		return LinePricing{}, apperr.Validation("product is required")
	}
	if product.IsDigital {
		return LinePricing{}, ErrDigitalProduct
	}

	line := LinePricing{
		ProductID:   product.ID,
		Quantity:    quantity,
		NormalPrice: product.BasePrice,
	}

	remaining := 0
	if product.FlashSale != nil {
		remaining = product.FlashSale.Remaining()
	}
	if remaining == 0 {
		line.UnitPrice = product.BasePrice
		line.NormalQty = quantity
		return line, nil
	}

	line.SalePrice = product.FlashSale.Price
	line.SaleQty = min(quantity, remaining)
	line.NormalQty = quantity - line.SaleQty
	if line.NormalQty == 0 {
		line.UnitPrice = product.FlashSale.Price
		return line, nil
	}

	line.Mixed = true
	line.StockExhausted = true
	return line, nil
}
