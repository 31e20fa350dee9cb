package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// page は1始まり
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Limit(limit).Offset((page - 1) * limit)
	}
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("created_at DESC").Order("id DESC")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).First(&o, orderID).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	return o, err
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	return listOrders(q, page, limit)
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if f.OrderStatus != "" {
		q = q.Where("order_status = ?", f.OrderStatus)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	//期間は両端を含む
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return listOrders(q, f.Page, f.Limit)
}

// 件数を数えてから同じ条件でページを取る
func listOrders(q *gorm.DB, page, limit int) ([]model.Order, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	orders := []model.Order{}
	if total == 0 {
		return orders, 0, nil
	}
	if err := q.Scopes(newestFirst, paginate(page, limit)).Find(&orders).Error; err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

// IdempotencyKeyの一意制約違反はErrDuplicateOrderにする
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	err := r.db.WithContext(ctx).Create(&order).Error
	switch {
	case isUniqueViolation(err):
		return 0, repo.ErrDuplicateOrder
	case err != nil:
		return 0, err
	}
	return order.ID, nil
}

// nilの項目は触らない
func (r *OrderGormRepository) Update(ctx context.Context, orderID int64, upd repo.OrderUpdate) error {
	fields := make(map[string]any, 3)
	if upd.OrderStatus != nil {
		fields["order_status"] = *upd.OrderStatus
	}
	if upd.PaymentStatus != nil {
		fields["payment_status"] = *upd.PaymentStatus
	}
	if upd.TrackingNumber != nil {
		fields["tracking_number"] = *upd.TrackingNumber
	}
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.Order{ID: orderID}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		Take(&o).Error
	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}
