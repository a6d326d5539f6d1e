package domain

import (
	"fmt"

	"inkverse/internal/pkg/apperr"
)

// 凭证校验的拒绝原因，按校验顺序排列
var (
	ErrVoucherNotFound    = apperr.Reject("NOT_FOUND", "voucher not found")
	ErrVoucherInactive    = apperr.Reject("INACTIVE", "voucher is not active")
	ErrVoucherOutOfWindow = apperr.Reject("OUT_OF_WINDOW", "voucher is outside its validity window")
	ErrBelowMinimum       = apperr.Reject("BELOW_MINIMUM", "order subtotal is below the voucher minimum")
	ErrLimitReached       = apperr.Reject("LIMIT_REACHED", "voucher usage limit reached")
	ErrAlreadyUsed        = apperr.Reject("ALREADY_USED", "voucher already redeemed by this user")
	ErrNotEligible        = apperr.Reject("NOT_ELIGIBLE", "order does not meet the voucher eligibility rule")
)

var (
	ErrProductNotFound = apperr.Reject("NOT_FOUND", "product not found")
	ErrDigitalProduct  = fmt.Errorf("%w: digital products cannot be added as cart lines", apperr.ErrValidation)
)

// 结算时检测到的陈旧状态
var (
	ErrStockChanged   = apperr.NewConflict("STOCK_CHANGED", "flash-sale stock changed, please review your cart")
	ErrVoucherChanged = apperr.NewConflict("VOUCHER_CHANGED", "voucher availability changed, please review your cart")
	ErrPriceChanged   = apperr.NewConflict("PRICE_CHANGED", "price changed, please review your cart")
)
