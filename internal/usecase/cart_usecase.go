package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// POST /cart の action
const (
	CartActionAdd    = "add"
	CartActionUpdate = "update"
	CartActionRemove = "remove"
)

type CartUsecase struct {
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	metrics   CartMetrics
}

func NewCartUsecase(cartItems repo.CartItemRepository, products repo.ProductRepository, metrics CartMetrics) *CartUsecase {
	return &CartUsecase{
		cartItems: cartItems,
		products:  products,
		metrics:   metrics,
	}
}

type CartProduct struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	OfferPrice decimal.Decimal `json:"offerPrice"`
	Image      string          `json:"image"`
	Stock      int64           `json:"stock"`
}

type CartLine struct {
	Product   CartProduct     `json:"product"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartSummary struct {
	pricing.Summary
	TotalDisplay string `json:"totalDisplay"`
}

type CartView struct {
	Items   []CartLine  `json:"items"`
	Summary CartSummary `json:"summary"`
}

// 更新後のカート（商品ID -> 数量）
type CartEntry struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartInput struct {
	ProductID int64
	Quantity  *int64
	Action    string
}

// GetCartは現在の販売価格でカートを評価する。
// 見つからない・非公開の商品は黙って除外する（注文確定とは逆）
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartView, error) {
	if userID == "" {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			ids = append(ids, it.ProductID)
		}
	}

	byID := map[int64]model.Product{}
	if len(ids) > 0 {
		products, err := u.products.ListActiveByIDs(ctx, ids)
		if err != nil {
			return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	view := CartView{Items: make([]CartLine, 0, len(items))}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || it.Quantity <= 0 {
			continue
		}
		line := pricing.Line{UnitPrice: p.OfferPrice, Quantity: it.Quantity}
		lines = append(lines, line)
		view.Items = append(view.Items, CartLine{
			Product: CartProduct{
				ID:         p.ID,
				Name:       p.Name,
				Price:      p.Price,
				OfferPrice: p.OfferPrice,
				Image:      p.Image,
				Stock:      p.Stock,
			},
			Quantity:  it.Quantity,
			LineTotal: pricing.LineTotal(line.UnitPrice, line.Quantity),
		})
	}

	sum := pricing.Calculate(lines)
	view.Summary = CartSummary{Summary: sum, TotalDisplay: pricing.Display(sum.Total)}
	return view, nil
}

// UpdateCartは add/update/remove を行い、更新後のカートを返す
func (u *CartUsecase) UpdateCart(ctx context.Context, userID string, in UpdateCartInput) ([]CartEntry, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return nil, NewValidationError("productId")
	}

	switch in.Action {
	case CartActionAdd:
		qty := int64(1)
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		if qty < 1 || qty > MaxItemQuantity {
			return nil, NewValidationError("quantity")
		}

		p, err := u.activeProduct(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}

		var existing int64
		ci, err := u.cartItems.FindByUserAndProduct(ctx, userID, in.ProductID)
		switch {
		case err == nil:
			existing = ci.Quantity
		case !errors.Is(err, repo.ErrNotFound):
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 足す前に比べる（existingも上限以下なのであふれない）
		if qty > p.Stock-existing {
			return nil, &InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: existing + qty}
		}
		if existing+qty > MaxItemQuantity {
			return nil, NewValidationError("quantity")
		}
		newQty := existing + qty
		if err := u.cartItems.SetQuantity(ctx, userID, in.ProductID, newQty); err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

	case CartActionUpdate:
		if in.Quantity == nil || *in.Quantity < 0 || *in.Quantity > MaxItemQuantity {
			return nil, NewValidationError("quantity")
		}
		qty := *in.Quantity

		p, err := u.activeProduct(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}

		// 0は削除
		if qty == 0 {
			if err := u.cartItems.Delete(ctx, userID, in.ProductID); err != nil {
				return nil, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			break
		}
		if qty > p.Stock {
			return nil, &InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: qty}
		}
		if err := u.cartItems.SetQuantity(ctx, userID, in.ProductID, qty); err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

	case CartActionRemove:
		// 商品が消えていてもカートからは外せる
		if err := u.cartItems.Delete(ctx, userID, in.ProductID); err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

	default:
		return nil, NewHTTPError(http.StatusBadRequest, "Invalid action")
	}

	u.metrics.CartMutated(ctx, in.Action)
	return u.entries(ctx, userID)
}

func (u *CartUsecase) activeProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
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

func (u *CartUsecase) entries(ctx context.Context, userID string) ([]CartEntry, error) {
	items, err := u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make([]CartEntry, 0, len(items))
	for _, it := range items {
		out = append(out, CartEntry{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out, nil
}
