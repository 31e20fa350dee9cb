package repository

import "context"

type WishlistRepository interface {
	ListProductIDs(ctx context.Context, userID string) ([]int64, error)
	// 既にあればfalse
	Add(ctx context.Context, userID string, productID int64) (bool, error)
	Remove(ctx context.Context, userID string, productID int64) error
	Exists(ctx context.Context, userID string, productID int64) (bool, error)
}
