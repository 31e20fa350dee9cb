package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

// Redisが無いときの採番。既存注文数+1
// 同時に採番すると重複しうるが、注文番号にはミリ秒が入るのでまず衝突しない
type OrderCountSequence struct {
	db *gorm.DB
}

func NewOrderCountSequence(db *gorm.DB) *OrderCountSequence {
	return &OrderCountSequence{db: db}
}

func (s *OrderCountSequence) Next(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}
