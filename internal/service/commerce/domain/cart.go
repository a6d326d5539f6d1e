package domain

import (
	"errors"
	"time"

	"inkverse/internal/pkg/apperr"
)

// EligibilityInput 是券资格规则可以读取的订单事实
type EligibilityInput struct {
	Subtotal     int64
	UserID       string
	LineCount    int
	HasFlashSale bool
}

// EligibilityCheck 在基础校验通过后执行附加资格规则，不满足时返回 ErrNotEligible
type EligibilityCheck func(v *Voucher, in EligibilityInput) error

// VoucherApplication 描述一次对订单应用券的请求。Voucher 为 nil 表示券码不存在。
type VoucherApplication struct {
	Code        string
	Voucher     *Voucher
	UserID      string
	Now         time.Time
	History     UsageHistory
	Eligibility EligibilityCheck
}

// Validate 对给定的行和小计执行完整校验，返回优惠额
func (a *VoucherApplication) Validate(lines []LinePricing, subtotal int64) (int64, error) {
	discount, err := ValidateVoucher(a.Voucher, subtotal, a.Now, a.History)
	if err != nil {
		return 0, err
	}
	if a.Eligibility != nil && a.Voucher.EligibilityRule != "" {
		if err := a.Eligibility(a.Voucher, eligibilityInput(lines, subtotal, a.UserID)); err != nil {
			return 0, err
		}
	}
	return discount, nil
}

func eligibilityInput(lines []LinePricing, subtotal int64, userID string) EligibilityInput {
	in := EligibilityInput{Subtotal: subtotal, UserID: userID, LineCount: len(lines)}
	for _, l := range lines {
		if l.SaleQty > 0 {
			in.HasFlashSale = true
			break
		}
	}
	return in
}

// Totals 是购物车的汇总结果
type Totals struct {
	Subtotal int64
	Discount int64
	Total    int64

	VoucherCode string
	// VoucherInvalidated 表示之前应用的券在当前购物车上不再有效，调用方需要提示用户
	VoucherInvalidated bool
	InvalidReason      string

	Notes []string
}

// ComputeTotals 汇总各行价格并应用券。
// 券被业务规则拒绝时不返回错误，而是在结果中标记 VoucherInvalidated。
func ComputeTotals(lines []LinePricing, applied *VoucherApplication) (Totals, error) {
	var t Totals
	for _, l := range lines {
		if l.SaleQty < 0 || l.NormalQty < 0 || l.SaleQty+l.NormalQty != l.Quantity {
			return Totals{}, apperr.Validation("line %s has an inconsistent breakdown", l.ProductID)
		}
		t.Subtotal += l.Subtotal()
		if note := l.Note(); note != "" {
			t.Notes = append(t.Notes, l.ProductID+": "+note)
		}
	}

	if applied != nil {
		t.VoucherCode = applied.Code
		discount, err := applied.Validate(lines, t.Subtotal)
		switch {
		case err == nil:
			t.Discount = discount
		case errors.Is(err, apperr.ErrRejected):
			t.VoucherInvalidated = true
			t.InvalidReason = apperr.CodeOf(err)
		default:
			return Totals{}, err
		}
	}

	t.Total = max(0, t.Subtotal-t.Discount)
	return t, nil
}
