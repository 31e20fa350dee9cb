package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーのカート（商品ID -> 数量）
type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID string, productID int64) (model.CartItem, error)
	// 数量を上書き。qtyは1以上
	SetQuantity(ctx context.Context, userID string, productID int64, qty int64) error
	Delete(ctx context.Context, userID string, productID int64) error
	ClearByUserID(ctx context.Context, userID string) error
}
