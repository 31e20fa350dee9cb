package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を追加順で返す
func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

func (r *CartItemGormRepository) FindByUserAndProduct(ctx context.Context, userID string, productID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if isNotFound(err) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 同じ(user, product)があれば数量を上書き、無ければ作成
func (r *CartItemGormRepository) SetQuantity(ctx context.Context, userID string, productID int64, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}

	now := time.Now()
	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
}

// 明細を削除（無くてもエラーにしない）
func (r *CartItemGormRepository) Delete(ctx context.Context, userID string, productID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{}).Error
}

// ユーザーのカートを空にする
func (r *CartItemGormRepository) ClearByUserID(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
