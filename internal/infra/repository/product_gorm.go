package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開商品のみを、カテゴリ/検索/価格帯/おすすめ/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	// name/descriptionを大文字小文字無視で検索
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	//価格帯はoffer_price
	if q.MinPrice != nil {
		tx = tx.Where("offer_price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("offer_price <= ?", *q.MaxPrice)
	}

	if q.Featured != nil {
		tx = tx.Where("featured = ?", *q.Featured)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.SortBy {
	case repo.SortByPriceLow:
		tx = tx.Order("offer_price asc").Order("id asc")
	case repo.SortByPriceHigh:
		tx = tx.Order("offer_price desc").Order("id desc")
	case repo.SortByNewest:
		tx = tx.Order("created_at desc").Order("id desc")
	default:
		tx = tx.Order("name asc").Order("id asc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) ListActiveByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（在庫は別API）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"offer_price": p.OfferPrice,
		"category_id": p.CategoryID,
		"image":       p.Image,
		"featured":    p.Featured,
		"is_active":   p.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
