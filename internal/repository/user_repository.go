package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// 無ければErrNotFound
	FindByID(ctx context.Context, userID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
