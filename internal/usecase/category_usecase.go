package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/slug"
	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
	products   repo.ProductRepository
}

func NewCategoryUsecase(categories repo.CategoryRepository, products repo.ProductRepository) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, products: products}
}

type CategoryDetailOutput struct {
	Category   model.Category  `json:"category"`
	Products   []model.Product `json:"products"`
	Pagination Pagination      `json:"pagination"`
}

type AdminCategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"required,max=500"`
	ParentID    *int64 `json:"parentId" validate:"omitempty,gt=0"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

func (u *CategoryUsecase) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	items, err := u.categories.List(ctx, activeOnly)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// 公開中カテゴリと、その公開中商品を返す。CategoryIDは上書きする
func (u *CategoryUsecase) GetBySlug(ctx context.Context, s string, in ListProductsInput) (CategoryDetailOutput, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	c, err := u.categories.FindActiveBySlug(ctx, s)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryDetailOutput{}, &NotFoundError{Kind: "category", ID: s}
	}
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	in.CategoryID = &c.ID
	q, err := buildProductQuery(in)
	if err != nil {
		return CategoryDetailOutput{}, err
	}
	products, total, err := u.products.ListPublic(ctx, q)
	if err != nil {
		return CategoryDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CategoryDetailOutput{
		Category:   c,
		Products:   products,
		Pagination: newPagination(q.Page, q.Limit, total),
	}, nil
}

func (u *CategoryUsecase) AdminCreate(ctx context.Context, adminUserID string, in AdminCategoryInput) (model.Category, error) {
	if adminUserID == "" {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	if fields := validator.InvalidFields(in); len(fields) > 0 {
		return model.Category{}, NewValidationError(fields...)
	}

	if in.ParentID != nil {
		_, err := u.categories.FindByID(ctx, *in.ParentID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Category{}, &NotFoundError{Kind: "category", ID: fmt.Sprint(*in.ParentID)}
		}
		if err != nil {
			return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	base := slug.Make(in.Name)
	if base == "" {
		return model.Category{}, NewValidationError("name")
	}
	s, err := u.uniqueSlug(ctx, base)
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now()
	c, err := u.categories.Create(ctx, model.Category{
		Name:        in.Name,
		Slug:        s,
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		IsActive:    active,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 使われていれば -2, -3 ... を付ける
func (u *CategoryUsecase) uniqueSlug(ctx context.Context, base string) (string, error) {
	s := base
	for i := 2; ; i++ {
		exists, err := u.categories.SlugExists(ctx, s)
		if err != nil {
			return "", err
		}
		if !exists {
			return s, nil
		}
		s = fmt.Sprintf("%s-%d", base, i)
	}
}
