package repository

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManagerGorm_RollbackOnError(t *testing.T) {
	gdb := newTestDB(t)
	tm := NewTxManagerGorm(gdb)
	ctx := context.Background()

	p := seedProduct(t, gdb, model.Product{Name: "P", OfferPrice: dec("1"), Stock: 5, IsActive: true})
	boom := errors.New("boom")

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, r.CartItems().SetQuantity(ctx, "u1", p.ID, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// 全部戻っている
	got, err := NewProductGormRepository(gdb).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Stock)
	items, _ := NewCartItemGormRepository(gdb).ListByUserID(ctx, "u1")
	assert.Empty(t, items)
}

func TestTxManagerGorm_Commit(t *testing.T) {
	gdb := newTestDB(t)
	tm := NewTxManagerGorm(gdb)
	ctx := context.Background()

	p := seedProduct(t, gdb, model.Product{Name: "P", OfferPrice: dec("1"), Stock: 5, IsActive: true})

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, 2); err != nil {
			return err
		}
		if _, err := r.Orders().Create(ctx, newOrder("u1", "RC-T")); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{ActorUserID: "a", Action: model.AuditActionUpdateStock, ResourceType: model.AuditResourceProduct, ResourceID: p.ID})
	})
	require.NoError(t, err)

	got, _ := NewProductGormRepository(gdb).FindByID(ctx, p.ID)
	assert.Equal(t, int64(3), got.Stock)
}
