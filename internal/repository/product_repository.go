package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 並び順
const (
	SortByName      = "name"
	SortByPriceLow  = "price-low"
	SortByPriceHigh = "price-high"
	SortByNewest    = "newest"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	CategoryID *int64
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   *bool
	SortBy     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 公開中（is_active）のみ
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	// 非公開も返す（論理削除済みは返さない）
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 公開中のものだけ。見つからないIDは結果に含まれない
	ListActiveByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
