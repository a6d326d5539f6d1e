package port

import (
	"context"

	"inkverse/internal/service/commerce/domain"
)

// CatalogReader 读取商品快照，秒杀已售数量必须是实时值。
// 商品不存在时返回 domain.ErrProductNotFound。
type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
