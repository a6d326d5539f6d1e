package port

import "context"

// FlashSaleStock 管理秒杀库存的实时已售数量
type FlashSaleStock interface {
	// Reserve 在 sold+qty <= limit 时原子地增加已售数量，否则返回 false。
	// baselineSold 是计数器不存在时的初始值（来自数据库快照）。
	Reserve(ctx context.Context, productID string, qty, limit, baselineSold int) (bool, error)
	// Release 是 Reserve 的补偿操作
	Release(ctx context.Context, productID string, qty int) error
	// Sold 返回实时已售数量，计数器不存在时 ok 为 false
	Sold(ctx context.Context, productID string) (sold int, ok bool, err error)
}
