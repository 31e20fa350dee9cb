package usecase

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWishlist_GetKeepsOrderAndSkipsInactive(t *testing.T) {
	wl := new(WishlistRepoMock)
	products := new(ProductRepoMock)
	uc := NewWishlistUsecase(wl, products)

	wl.On("ListProductIDs", mock.Anything, "u1").Return([]int64{3, 1, 2}, nil)
	products.On("ListActiveByIDs", mock.Anything, []int64{3, 1, 2}).Return([]model.Product{
		product(1, "1", 1), product(3, "3", 3),
	}, nil)

	out, err := uc.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(3), out[0].ID)
	assert.Equal(t, int64(1), out[1].ID)
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	wl := new(WishlistRepoMock)
	products := new(ProductRepoMock)
	uc := NewWishlistUsecase(wl, products)

	products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "1", 1), nil)
	wl.On("Add", mock.Anything, "u1", int64(1)).Return(true, nil).Once()
	wl.On("Add", mock.Anything, "u1", int64(1)).Return(false, nil).Once()
	wl.On("ListProductIDs", mock.Anything, "u1").Return([]int64{1}, nil)

	out, err := uc.Update(context.Background(), "u1", 1, WishlistActionAdd)
	require.NoError(t, err)
	assert.Equal(t, "added to wishlist", out.Message)
	assert.True(t, out.IsInWishlist)

	out, err = uc.Update(context.Background(), "u1", 1, WishlistActionAdd)
	require.NoError(t, err)
	assert.Equal(t, "already in wishlist", out.Message)
	assert.Equal(t, []int64{1}, out.Wishlist)
}

func TestWishlist_RemoveAndErrors(t *testing.T) {
	wl := new(WishlistRepoMock)
	products := new(ProductRepoMock)
	uc := NewWishlistUsecase(wl, products)

	wl.On("Remove", mock.Anything, "u1", int64(1)).Return(nil)
	wl.On("ListProductIDs", mock.Anything, "u1").Return([]int64{}, nil)
	products.On("FindByID", mock.Anything, int64(7)).Return(model.Product{}, repo.ErrNotFound)

	out, err := uc.Update(context.Background(), "u1", 1, WishlistActionRemove)
	require.NoError(t, err)
	assert.False(t, out.IsInWishlist)
	assert.Equal(t, "removed from wishlist", out.Message)

	_, err = uc.Update(context.Background(), "u1", 7, WishlistActionAdd)
	var ne *NotFoundError
	assert.ErrorAs(t, err, &ne)

	_, err = uc.Update(context.Background(), "u1", 1, "toggle")
	_, ok := AsHTTPError(err)
	assert.True(t, ok)
}
