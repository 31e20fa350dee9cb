package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	categoryRepo  repo.CategoryRepository
	tx            repo.TransactionManager
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	categoryRepo repo.CategoryRepository,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		categoryRepo:  categoryRepo,
		tx:            tx,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	CategoryID *int64
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   *bool
	SortBy     string
}

type ProductListOutput struct {
	Products   []model.Product `json:"products"`
	Pagination Pagination      `json:"pagination"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	q, err := buildProductQuery(in)
	if err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.ListPublic(ctx, q)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Products:   items,
		Pagination: newPagination(q.Page, q.Limit, total),
	}, nil
}

// カテゴリ詳細でも使う
func buildProductQuery(in ListProductsInput) (repo.ProductListQuery, error) {
	page, limit := normalizePage(in.Page, in.Limit, 12)
	search := strings.TrimSpace(in.Search)
	if len(search) > 100 {
		return repo.ProductListQuery{}, NewHTTPError(http.StatusBadRequest, "search too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return repo.ProductListQuery{}, NewHTTPError(http.StatusBadRequest, "minPrice must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return repo.ProductListQuery{}, NewHTTPError(http.StatusBadRequest, "maxPrice must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return repo.ProductListQuery{}, NewHTTPError(http.StatusBadRequest, "minPrice must be <= maxPrice")
	}
	switch in.SortBy {
	case "", repo.SortByName, repo.SortByPriceLow, repo.SortByPriceHigh, repo.SortByNewest:
	default:
		return repo.ProductListQuery{}, NewHTTPError(http.StatusBadRequest, "invalid sortBy")
	}

	return repo.ProductListQuery{
		Page:       page,
		Limit:      limit,
		CategoryID: in.CategoryID,
		Search:     search,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Featured:   in.Featured,
		SortBy:     in.SortBy,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, productNotFound(productID)
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return model.Product{}, productNotFound(productID)
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	OfferPrice  *decimal.Decimal `json:"offerPrice"`
	Stock       int64            `json:"stock" validate:"gte=0"`
	CategoryID  *int64           `json:"categoryId" validate:"omitempty,gt=0"`
	Image       string           `json:"image" validate:"max=500"`
	Featured    bool             `json:"featured"`
	IsActive    bool             `json:"isActive"`
}

func (u *ProductUsecase) validateProduct(ctx context.Context, in *AdminProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	fields := validator.InvalidFields(*in)
	if in.Price.IsNegative() {
		fields = append(fields, "price")
	}
	// 販売価格が無ければ定価
	if in.OfferPrice == nil {
		p := in.Price
		in.OfferPrice = &p
	} else if in.OfferPrice.IsNegative() {
		fields = append(fields, "offerPrice")
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}

	if in.CategoryID != nil {
		_, err := u.categoryRepo.FindByID(ctx, *in.CategoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Kind: "category", ID: fmt.Sprint(*in.CategoryID)}
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID string, in AdminProductInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateProduct(ctx, &in); err != nil {
		return model.Product{}, err
	}

	now := time.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		OfferPrice:  *in.OfferPrice,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Image:       in.Image,
		Featured:    in.Featured,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 在庫は AdminUpdateInventory でしか変えない
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID string, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := u.validateProduct(ctx, &in); err != nil {
		return model.Product{}, err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		OfferPrice:  *in.OfferPrice,
		CategoryID:  in.CategoryID,
		Image:       in.Image,
		Featured:    in.Featured,
		IsActive:    in.IsActive,
		UpdatedAt:   time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, productNotFound(productID)
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID string, productID int64) error {
	if adminUserID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return productNotFound(productID)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(productID)
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"name":%q,"stock":%d}`, p.Name, p.Stock),
			AfterJSON:    `{"deleted":true}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// 在庫の上書き。調整履歴と監査ログも同じトランザクションで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID string, productID int64, newStock int64, reason string) (model.Product, error) {
	if adminUserID == "" {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return model.Product{}, NewValidationError("stock")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Product{}, NewValidationError("reason")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return productNotFound(productID)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(productID)
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       newStock - p.Stock,
			Reason:      reason,
			CreatedAt:   time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.Stock = newStock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

func (u *ProductUsecase) AdminListAdjustments(ctx context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, productNotFound(productID)
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.inventoryRepo.ListAdjustments(ctx, productID, limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}
