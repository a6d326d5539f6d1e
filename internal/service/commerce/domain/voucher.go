package domain

import (
	"time"

	"inkverse/internal/pkg/apperr"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// Voucher 是优惠券定义，UsedCount 是全局已使用次数
type Voucher struct {
	Code              string
	IsActive          bool
	DiscountType      DiscountType
	DiscountValue     int64
	MinOrderValue     int64
	MaxDiscountAmount int64
	StartDate         *time.Time
	EndDate           *time.Time
	UsageLimit        int
	UsedCount         int
	OnePerUser        bool
	// EligibilityRule 是可选的 CEL 表达式，为空表示不限制
	EligibilityRule string
}

// UsageHistory 记录某个用户对每张券的兑换次数，key 为券码
type UsageHistory map[string]int

// Discount 计算券在 subtotal 上的实际优惠额，结果落在 [0, subtotal]。
// 百分比券向下取整。
func (v *Voucher) Discount(subtotal int64) int64 {
	var d int64
	switch v.DiscountType {
	case DiscountPercent:
		d = subtotal * v.DiscountValue / 100
		if v.MaxDiscountAmount > 0 && d > v.MaxDiscountAmount {
			d = v.MaxDiscountAmount
		}
	case DiscountFixed:
		d = v.DiscountValue
	}
	return max(0, min(d, subtotal))
}

// ValidateVoucher 判断券能否用于当前订单并返回优惠额。不会修改使用次数。
func ValidateVoucher(v *Voucher, subtotal int64, now time.Time, history UsageHistory) (int64, error) {
	if subtotal < 0 {
		return 0, apperr.Validation("subtotal must be >= 0, got %d", subtotal)
	}
	if v == nil {
		return 0, ErrVoucherNotFound
	}
	if !v.IsActive {
		return 0, ErrVoucherInactive
	}
	if (v.StartDate != nil && now.Before(*v.StartDate)) || (v.EndDate != nil && now.After(*v.EndDate)) {
		return 0, ErrVoucherOutOfWindow
	}
	if subtotal < v.MinOrderValue {
		return 0, ErrBelowMinimum
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return 0, ErrLimitReached
	}
	if v.OnePerUser && history[v.Code] > 0 {
		return 0, ErrAlreadyUsed
	}
	return v.Discount(subtotal), nil
}
