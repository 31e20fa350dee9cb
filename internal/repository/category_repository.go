package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	// sort_order, name の順
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	// 公開中のみ
	FindActiveBySlug(ctx context.Context, slug string) (model.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
}
