package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

// 一意制約（注文番号/冪等キー）にぶつかった
var ErrDuplicateOrder = errors.New("duplicate order")

type AdminOrderListFilter struct {
	Page        int
	Limit       int
	OrderStatus string
	UserID      *string
	From        *time.Time
	To          *time.Time
}

// 部分更新。nilの項目は変えない
type OrderUpdate struct {
	OrderStatus    *model.OrderStatus
	PaymentStatus  *model.PaymentStatus
	TrackingNumber *string
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 新しい順
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	Update(ctx context.Context, orderID int64, upd OrderUpdate) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

// 注文番号の連番
type OrderSequence interface {
	Next(ctx context.Context) (int64, error)
}
