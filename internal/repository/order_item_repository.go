package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	// 作成順（リクエストの並び）
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
