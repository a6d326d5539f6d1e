package infrastructure

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inkverse/internal/service/commerce/domain"
	"inkverse/internal/service/commerce/domain/port"
)

// GormCatalogRepository 是 port.CatalogReader 的 GORM 实现。
// 秒杀已售数量会被 Redis 中的实时计数覆盖。
type GormCatalogRepository struct {
	db    *gorm.DB
	stock port.FlashSaleStock
	now   func() time.Time
}

func NewGormCatalogRepository(db *gorm.DB, stock port.FlashSaleStock) *GormCatalogRepository {
	return &GormCatalogRepository{db: db, stock: stock, now: time.Now}
}

func (r *GormCatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, pkgerrors.Wrapf(err, "load product %s", id)
	}

	product := ToDomainProduct(&model, r.now())
	if product.FlashSale != nil && r.stock != nil {
		sold, ok, err := r.stock.Sold(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "load flash-sale counter %s", id)
		}
		if ok {
			product.FlashSale.Sold = sold
		}
	}
	return product, nil
}

// GormVoucherRepository 是 port.VoucherRepository 的 GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var model VoucherModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "load voucher %s", code)
	}
	return ToDomainVoucher(&model), nil
}

func (r *GormVoucherRepository) UsageHistory(ctx context.Context, userID string) (domain.UsageHistory, error) {
	var rows []struct {
		VoucherCode string
		Uses        int
	}
	err := r.db.WithContext(ctx).Model(&VoucherRedemptionModel{}).
		Select("voucher_code, COUNT(*) AS uses").
		Where("user_id = ?", userID).
		Group("voucher_code").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "load voucher usage for %s", userID)
	}
	history := make(domain.UsageHistory, len(rows))
	for _, row := range rows {
		history[row.VoucherCode] = row.Uses
	}
	return history, nil
}

// IncrementUsage 锁定券行后再检查全局上限和单用户限制，避免两个用户抢到最后一次使用
func (r *GormVoucherRepository) IncrementUsage(ctx context.Context, code, userID, orderID string) (bool, error) {
	redeemed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model VoucherModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if model.UsageLimit > 0 && model.UsedCount >= model.UsageLimit {
			return nil
		}
		if model.OnePerUser {
			var uses int64
			if err := tx.Model(&VoucherRedemptionModel{}).
				Where("voucher_code = ? AND user_id = ?", code, userID).
				Count(&uses).Error; err != nil {
				return err
			}
			if uses > 0 {
				return nil
			}
		}

		if err := tx.Model(&VoucherModel{}).Where("code = ?", code).
			Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Create(&VoucherRedemptionModel{VoucherCode: code, UserID: userID, OrderID: orderID}).Error; err != nil {
			return err
		}
		redeemed = true
		return nil
	})
	if err != nil {
		return false, pkgerrors.Wrapf(err, "redeem voucher %s", code)
	}
	return redeemed, nil
}

func (r *GormVoucherRepository) DecrementUsage(ctx context.Context, code, userID, orderID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("voucher_code = ? AND user_id = ? AND order_id = ?", code, userID, orderID).
			Delete(&VoucherRedemptionModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&VoucherModel{}).Where("code = ? AND used_count > 0", code).
			Update("used_count", gorm.Expr("used_count - 1")).Error
	})
	return pkgerrors.Wrapf(err, "release voucher %s", code)
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 首次保存时连同行快照一起插入，之后只更新状态字段
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OrderModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
			"state":      model.State,
			"updated_at": model.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(model).Error
	})
	return pkgerrors.Wrapf(err, "save order %s", order.ID)
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "load order %s", id)
	}
	return ToDomainOrder(&model), nil
}
