package application

import (
	"inkverse/internal/service/commerce/domain"
)

// LineRequest 是购物车中的一行
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// LineQuote 是一行的定价结果
type LineQuote struct {
	ProductID       string `json:"productId"`
	Quantity        int    `json:"quantity"`
	Mixed           bool   `json:"mixed"`
	UnitPrice       int64  `json:"unitPrice,omitempty"`
	SaleQty         int    `json:"saleQty"`
	SalePrice       int64  `json:"salePrice,omitempty"`
	NormalQty       int    `json:"normalQty"`
	NormalPrice     int64  `json:"normalPrice"`
	Subtotal        int64  `json:"subtotal"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	Note            string `json:"note,omitempty"`
}

// CartQuote 是购物车预览结果
type CartQuote struct {
	Lines              []LineQuote `json:"lines"`
	Subtotal           int64       `json:"subtotal"`
	Discount           int64       `json:"discount"`
	Total              int64       `json:"total"`
	VoucherCode        string      `json:"voucherCode,omitempty"`
	VoucherInvalidated bool        `json:"voucherInvalidated,omitempty"`
	InvalidReason      string      `json:"invalidReason,omitempty"`
	Notes              []string    `json:"notes,omitempty"`
}

type PreviewCartRequest struct {
	UserID      string        `json:"userId"`
	Lines       []LineRequest `json:"lines"`
	VoucherCode string        `json:"voucherCode,omitempty"`
}

type ApplyVoucherRequest struct {
	UserID string        `json:"userId"`
	Code   string        `json:"code"`
	Lines  []LineRequest `json:"lines"`
}

type ApplyVoucherResponse struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
	Discount int64  `json:"discount"`
	Total    int64  `json:"total"`
}

// CheckoutRequest 携带客户端在预览时看到的结果，服务端只用它做比对
type CheckoutRequest struct {
	UserID        string        `json:"userId"`
	Lines         []LineRequest `json:"lines"`
	VoucherCode   string        `json:"voucherCode,omitempty"`
	ExpectedLines []LineQuote   `json:"expectedLines,omitempty"`
	ExpectedTotal int64         `json:"expectedTotal"`
}

type CheckoutResponse struct {
	OrderID  string       `json:"orderId"`
	State    domain.State `json:"state"`
	Subtotal int64        `json:"subtotal"`
	Discount int64        `json:"discount"`
	Total    int64        `json:"total"`
}

func toLineQuote(line domain.LinePricing, product *domain.Product) LineQuote {
	q := LineQuote{
		ProductID:   line.ProductID,
		Quantity:    line.Quantity,
		Mixed:       line.Mixed,
		UnitPrice:   line.UnitPrice,
		SaleQty:     line.SaleQty,
		SalePrice:   line.SalePrice,
		NormalQty:   line.NormalQty,
		NormalPrice: line.NormalPrice,
		Subtotal:    line.Subtotal(),
		Note:        line.Note(),
	}
	if product != nil && line.SaleQty > 0 {
		q.DiscountPercent = product.DiscountPercent()
	}
	return q
}

func toCartQuote(lines []domain.LinePricing, products []*domain.Product, totals domain.Totals) *CartQuote {
	quote := &CartQuote{
		Subtotal:           totals.Subtotal,
		Discount:           totals.Discount,
		Total:              totals.Total,
		VoucherCode:        totals.VoucherCode,
		VoucherInvalidated: totals.VoucherInvalidated,
		InvalidReason:      totals.InvalidReason,
		Notes:              totals.Notes,
	}
	for i, l := range lines {
		quote.Lines = append(quote.Lines, toLineQuote(l, products[i]))
	}
	return quote
}
