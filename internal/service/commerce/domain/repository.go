package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
}
