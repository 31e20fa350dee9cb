package repository

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// :memory: は接続ごとに別DBになるので1本に固定
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, gdb *gorm.DB, p model.Product) model.Product {
	t.Helper()
	if p.Price.IsZero() {
		p.Price = p.OfferPrice
	}
	out, err := NewProductGormRepository(gdb).Create(context.Background(), p)
	require.NoError(t, err)
	return out
}
