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

func TestCategoryAdminCreate_UniqueSlug(t *testing.T) {
	categories := new(CategoryRepoMock)
	uc := NewCategoryUsecase(categories, new(ProductRepoMock))

	categories.On("SlugExists", mock.Anything, "home-garden").Return(true, nil)
	categories.On("SlugExists", mock.Anything, "home-garden-2").Return(true, nil)
	categories.On("SlugExists", mock.Anything, "home-garden-3").Return(false, nil)
	categories.On("Create", mock.Anything, mock.MatchedBy(func(c model.Category) bool {
		return c.Slug == "home-garden-3" && c.Name == "Home & Garden" && c.IsActive
	})).Return(model.Category{ID: 5, Slug: "home-garden-3"}, nil)

	c, err := uc.AdminCreate(context.Background(), "admin-1", AdminCategoryInput{
		Name:        "Home & Garden",
		Description: "Everything for the yard",
		Image:       "https://img.example/home.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "home-garden-3", c.Slug)
}

func TestCategoryAdminCreate_Validation(t *testing.T) {
	categories := new(CategoryRepoMock)
	uc := NewCategoryUsecase(categories, new(ProductRepoMock))

	_, err := uc.AdminCreate(context.Background(), "admin-1", AdminCategoryInput{Name: "Toys"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"description", "image"}, ve.Fields)

	categories.On("FindByID", mock.Anything, int64(9)).Return(model.Category{}, repo.ErrNotFound)
	_, err = uc.AdminCreate(context.Background(), "admin-1", AdminCategoryInput{
		Name: "Toys", Description: "d", Image: "i", ParentID: i64(9),
	})
	var ne *NotFoundError
	assert.ErrorAs(t, err, &ne)
}

func TestCategoryGetBySlug(t *testing.T) {
	categories := new(CategoryRepoMock)
	products := new(ProductRepoMock)
	uc := NewCategoryUsecase(categories, products)

	categories.On("FindActiveBySlug", mock.Anything, "toys").Return(model.Category{ID: 3, Slug: "toys"}, nil)
	categories.On("FindActiveBySlug", mock.Anything, "gone").Return(model.Category{}, repo.ErrNotFound)
	products.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.CategoryID != nil && *q.CategoryID == 3 && q.SortBy == repo.SortByNewest && q.Limit == 12
	})).Return([]model.Product{product(1, "1", 1)}, int64(1), nil)

	out, err := uc.GetBySlug(context.Background(), "toys", ListProductsInput{CategoryID: i64(99), SortBy: repo.SortByNewest})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Category.ID)
	assert.Len(t, out.Products, 1)
	assert.Equal(t, 1, out.Pagination.TotalPages)

	_, err = uc.GetBySlug(context.Background(), "gone", ListProductsInput{})
	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "category gone not found", ne.Error())
}

func TestAuditList_ValidatesFilter(t *testing.T) {
	audit := new(AuditRepoMock)
	uc := NewAuditUsecase(audit)

	bad := model.AuditAction("DROP")
	_, err := uc.List(context.Background(), repo.AuditLogFilter{Action: &bad})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	action := model.AuditActionUpdateOrder
	audit.On("List", mock.Anything, repo.AuditLogFilter{Action: &action, Limit: 10}).
		Return([]model.AuditLog{{ID: 1, Action: action}}, nil)
	logs, err := uc.List(context.Background(), repo.AuditLogFilter{Action: &action, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUserAdminSetActive(t *testing.T) {
	users := new(UserRepoMock)
	uc := NewUserUsecase(users)

	u := &model.User{ID: "u1", IsActive: true}
	users.On("FindByID", mock.Anything, "u1").Return(u, nil)
	users.On("FindByID", mock.Anything, "nobody").Return(nil, repo.ErrNotFound)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return !u.IsActive })).Return(nil)

	out, err := uc.AdminSetActive(context.Background(), "admin-1", "u1", false)
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	_, err = uc.AdminSetActive(context.Background(), "admin-1", "admin-1", false)
	_, ok := AsHTTPError(err)
	assert.True(t, ok)

	_, err = uc.AdminSetActive(context.Background(), "admin-1", "nobody", true)
	var ne *NotFoundError
	assert.ErrorAs(t, err, &ne)
}
