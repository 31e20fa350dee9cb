package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

// 1つのtxに束ねたrepo一式
type txReposGorm struct {
	tx *gorm.DB
}

func (r txReposGorm) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r txReposGorm) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r txReposGorm) CartItems() repo.CartItemRepository   { return NewCartItemGormRepository(r.tx) }
func (r txReposGorm) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r txReposGorm) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }
func (r txReposGorm) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返すかpanicしたらrollback
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txReposGorm{tx: tx})
	})
}
