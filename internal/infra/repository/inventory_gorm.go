package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// 在庫はproducts.stockを直接動かす。履歴はinventory_adjustments
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) products(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{})
}

// 1行も当たらなければ商品が無い
func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	if newStock < 0 {
		return fmt.Errorf("set stock %d: negative stock %d", productID, newStock)
	}
	return affectedOne(r.products(ctx).Where("id = ?", productID).Update("stock", newStock))
}

// stock >= qty のときだけ1文で減らす。falseは在庫不足
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrease stock %d: qty must be positive, got %d", productID, qty)
	}
	res := r.products(ctx).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// キャンセル時の戻し。削除済み商品も対象
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("increase stock %d: qty must be positive, got %d", productID, qty)
	}
	return affectedOne(r.products(ctx).
		Unscoped().
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)))
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

// 新しい順
func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out := []model.InventoryAdjustment{}
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
