package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistGormRepository struct {
	db *gorm.DB
}

func NewWishlistGormRepository(db *gorm.DB) *WishlistGormRepository {
	return &WishlistGormRepository{db: db}
}

func (r *WishlistGormRepository) ListProductIDs(ctx context.Context, userID string) ([]int64, error) {
	ids := []int64{}
	if err := r.db.WithContext(ctx).
		Model(&model.WishlistItem{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("product_id", &ids).Error; err != nil {
		return []int64{}, err
	}
	return ids, nil
}

// 重複はDO NOTHINGで無視し、追加できたかを返す
func (r *WishlistGormRepository) Add(ctx context.Context, userID string, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WishlistItem{UserID: userID, ProductID: productID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *WishlistGormRepository) Remove(ctx context.Context, userID string, productID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{}).Error
}

func (r *WishlistGormRepository) Exists(ctx context.Context, userID string, productID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
