package domain

import "time"

// OrderPlaced 在订单提交成功后发布
type OrderPlaced struct {
	EventID     string    `json:"eventId"`
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	Total       int64     `json:"total"`
	Discount    int64     `json:"discount"`
	VoucherCode string    `json:"voucherCode,omitempty"`
	ItemCount   int       `json:"itemCount"`
	PlacedAt    time.Time `json:"placedAt"`
}

func NewOrderPlaced(eventID string, o *Order) *OrderPlaced {
	items := 0
	for _, l := range o.Lines {
		items += l.Quantity
	}
	return &OrderPlaced{
		EventID:     eventID,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Total:       o.Total,
		Discount:    o.Discount,
		VoucherCode: o.VoucherCode,
		ItemCount:   items,
		PlacedAt:    o.UpdatedAt,
	}
}
