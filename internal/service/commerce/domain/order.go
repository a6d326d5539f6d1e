package domain

import (
	"errors"
	"time"
)

// Order 是订单聚合的根实体，金额来自服务端重新计算的 Totals
type Order struct {
	ID          string
	UserID      string
	Lines       []LinePricing
	Subtotal    int64
	Discount    int64
	Total       int64
	VoucherCode string
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder 用服务端计算的结果创建订单
func NewOrder(id, userID string, lines []LinePricing, totals Totals, voucherCode string, now time.Time) (*Order, error) {
	if id == "" || userID == "" || len(lines) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}
	return &Order{
		ID:          id,
		UserID:      userID,
		Lines:       lines,
		Subtotal:    totals.Subtotal,
		Discount:    totals.Discount,
		Total:       totals.Total,
		VoucherCode: voucherCode,
		State:       StateCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// FlashSaleLines 返回需要预留秒杀库存的行
func (o *Order) FlashSaleLines() []LinePricing {
	var out []LinePricing
	for _, l := range o.Lines {
		if l.SaleQty > 0 {
			out = append(out, l)
		}
	}
	return out
}

// MarkAsPlaced 只负责状态流转
func (o *Order) MarkAsPlaced(now time.Time) error {
	if o.State != StateCreated {
		return errors.New("order can only be placed from created state")
	}
	o.State = StatePlaced
	o.UpdatedAt = now
	return nil
}

// MarkAsFailed 将订单标记为失败
func (o *Order) MarkAsFailed(now time.Time) {
	o.State = StateFailed
	o.UpdatedAt = now
}
