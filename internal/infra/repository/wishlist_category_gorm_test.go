package repository

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistGormRepository(t *testing.T) {
	gdb := newTestDB(t)
	r := NewWishlistGormRepository(gdb)
	ctx := context.Background()

	added, err := r.Add(ctx, "u1", 3)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Add(ctx, "u1", 3)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = r.Add(ctx, "u1", 1)
	require.NoError(t, err)

	ids, err := r.ListProductIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	ok, err := r.Exists(ctx, "u1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Remove(ctx, "u1", 3))
	ok, _ = r.Exists(ctx, "u1", 3)
	assert.False(t, ok)

	ids, _ = r.ListProductIDs(ctx, "nobody")
	assert.Equal(t, []int64{}, ids)
}

func TestCategoryGormRepository(t *testing.T) {
	gdb := newTestDB(t)
	r := NewCategoryGormRepository(gdb)
	ctx := context.Background()

	_, err := r.Create(ctx, model.Category{Name: "Zeta", Slug: "zeta", Description: "d", Image: "i", IsActive: true, SortOrder: 1})
	require.NoError(t, err)
	_, err = r.Create(ctx, model.Category{Name: "Beta", Slug: "beta", Description: "d", Image: "i", IsActive: true, SortOrder: 1})
	require.NoError(t, err)
	first, err := r.Create(ctx, model.Category{Name: "Omega", Slug: "omega", Description: "d", Image: "i", IsActive: true, SortOrder: 0})
	require.NoError(t, err)
	_, err = r.Create(ctx, model.Category{Name: "Off", Slug: "off", Description: "d", Image: "i", IsActive: false})
	require.NoError(t, err)

	all, err := r.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := r.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "Omega", active[0].Name)
	assert.Equal(t, "Beta", active[1].Name)
	assert.Equal(t, "Zeta", active[2].Name)

	got, err := r.FindActiveBySlug(ctx, "omega")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = r.FindActiveBySlug(ctx, "off")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = r.FindByID(ctx, 404)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	exists, err := r.SlugExists(ctx, "beta")
	require.NoError(t, err)
	assert.True(t, exists)

	// slugは一意
	_, err = r.Create(ctx, model.Category{Name: "Beta2", Slug: "beta", Description: "d", Image: "i"})
	assert.Error(t, err)
}
