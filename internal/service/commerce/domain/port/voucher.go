package port

import (
	"context"

	"inkverse/internal/service/commerce/domain"
)

// VoucherRepository 是券的存储接口
type VoucherRepository interface {
	// FindByCode 券不存在时返回 (nil, nil)
	FindByCode(ctx context.Context, code string) (*domain.Voucher, error)
	UsageHistory(ctx context.Context, userID string) (domain.UsageHistory, error)
	// IncrementUsage 在未超过全局上限时原子地记录一次兑换，超限返回 false
	IncrementUsage(ctx context.Context, code, userID, orderID string) (bool, error)
	// DecrementUsage 是 IncrementUsage 的补偿操作
	DecrementUsage(ctx context.Context, code, userID, orderID string) error
}

// EligibilityEvaluator 执行券上的资格表达式
type EligibilityEvaluator interface {
	Evaluate(rule string, in domain.EligibilityInput) (bool, error)
}
