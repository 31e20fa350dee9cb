package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	WishlistActionAdd    = "add"
	WishlistActionRemove = "remove"
)

type WishlistUsecase struct {
	wishlist repo.WishlistRepository
	products repo.ProductRepository
}

func NewWishlistUsecase(wishlist repo.WishlistRepository, products repo.ProductRepository) *WishlistUsecase {
	return &WishlistUsecase{wishlist: wishlist, products: products}
}

type WishlistOutput struct {
	Wishlist     []int64 `json:"wishlist"`
	IsInWishlist bool    `json:"isInWishlist"`
	Message      string  `json:"-"`
}

// Getは公開中の商品だけを登録順で返す
func (u *WishlistUsecase) Get(ctx context.Context, userID string) ([]model.Product, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	ids, err := u.wishlist.ListProductIDs(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := u.products.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]model.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (u *WishlistUsecase) Update(ctx context.Context, userID string, productID int64, action string) (WishlistOutput, error) {
	if userID == "" {
		return WishlistOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return WishlistOutput{}, NewValidationError("productId")
	}

	var (
		msg string
		in  bool
	)
	switch action {
	case WishlistActionAdd:
		p, err := u.products.FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
			return WishlistOutput{}, productNotFound(productID)
		}
		if err != nil {
			return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		added, err := u.wishlist.Add(ctx, userID, productID)
		if err != nil {
			return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		msg = "added to wishlist"
		if !added {
			msg = "already in wishlist"
		}
		in = true

	case WishlistActionRemove:
		if err := u.wishlist.Remove(ctx, userID, productID); err != nil {
			return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		msg = "removed from wishlist"

	default:
		return WishlistOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid action")
	}

	ids, err := u.wishlist.ListProductIDs(ctx, userID)
	if err != nil {
		return WishlistOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return WishlistOutput{Wishlist: ids, IsInWishlist: in, Message: msg}, nil
}
