package infrastructure

import (
	"time"
)

// ProductModel 对应 products 表，秒杀已售数量以 Redis 计数器为准
type ProductModel struct {
	ID                string `gorm:"primaryKey;size:64"`
	Name              string
	BasePrice         int64
	IsDigital         bool
	FlashSaleEnabled  bool
	FlashSalePrice    int64
	FlashSaleLimit    int
	FlashSaleSold     int
	FlashSaleStartsAt *time.Time
	FlashSaleEndsAt   *time.Time
	UpdatedAt         time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

// VoucherModel 对应 vouchers 表
type VoucherModel struct {
	Code              string `gorm:"primaryKey;size:64"`
	IsActive          bool
	DiscountType      string `gorm:"size:16"`
	DiscountValue     int64
	MinOrderValue     int64
	MaxDiscountAmount int64
	StartDate         *time.Time
	EndDate           *time.Time
	UsageLimit        int
	UsedCount         int
	OnePerUser        bool
	EligibilityRule   string `gorm:"type:text"`
}

func (VoucherModel) TableName() string {
	return "vouchers"
}

// VoucherRedemptionModel 每次成功兑换一行，用于单用户限用和补偿
type VoucherRedemptionModel struct {
	ID          uint   `gorm:"primaryKey"`
	VoucherCode string `gorm:"size:64;index:idx_redemption_user,priority:2"`
	UserID      string `gorm:"size:64;index:idx_redemption_user,priority:1"`
	OrderID     string `gorm:"size:64;uniqueIndex"`
	CreatedAt   time.Time
}

func (VoucherRedemptionModel) TableName() string {
	return "voucher_redemptions"
}

// OrderModel 对应 orders 表
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	UserID      string `gorm:"size:64;index"`
	Subtotal    int64
	Discount    int64
	Total       int64
	VoucherCode string `gorm:"size:64"`
	State       string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lines []OrderLineModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineModel 保存下单时的价格拆分快照
type OrderLineModel struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     string `gorm:"size:64;index"`
	ProductID   string `gorm:"size:64"`
	Quantity    int
	SaleQty     int
	SalePrice   int64
	NormalQty   int
	NormalPrice int64
}

func (OrderLineModel) TableName() string {
	return "order_lines"
}

// Models 返回需要迁移的全部模型
func Models() []interface{} {
	return []interface{}{&ProductModel{}, &VoucherModel{}, &VoucherRedemptionModel{}, &OrderModel{}, &OrderLineModel{}}
}
