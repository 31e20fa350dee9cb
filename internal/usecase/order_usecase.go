package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx      repo.TransactionManager
	seq     repo.OrderSequence
	metrics OrderMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, seq repo.OrderSequence, metrics OrderMetrics, log *zap.Logger) *OrderUsecase {
	return &OrderUsecase{
		tx:      tx,
		seq:     seq,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// 1商品あたりの数量上限。同じ商品の明細を合算した後にも掛ける
const MaxItemQuantity int64 = 10000

type PlaceOrderItem struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=1,lte=10000"`
}

type ShippingAddressInput struct {
	FullName    string `json:"fullName" validate:"required,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=30"`
	Address     string `json:"address" validate:"required,max=500"`
	City        string `json:"city" validate:"required,max=255"`
	State       string `json:"state" validate:"required,max=255"`
	Pincode     string `json:"pincode" validate:"required,max=20"`
	Country     string `json:"country" validate:"max=100"`
}

type PlaceOrderInput struct {
	Items           []PlaceOrderItem     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressInput `json:"shippingAddress"`
	PaymentMethod   string               `json:"paymentMethod" validate:"required,oneof=credit_card debit_card paypal stripe"`
	Notes           string               `json:"notes" validate:"max=2000"`
	IdempotencyKey  string               `json:"idempotencyKey" validate:"max=255"`
}

type OrderItemOutput struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	OrderNumber     string                `json:"orderNumber"`
	UserID          string                `json:"userId"`
	Items           []OrderItemOutput     `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   model.PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   model.PaymentStatus   `json:"paymentStatus"`
	OrderStatus     model.OrderStatus     `json:"orderStatus"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	ShippingCost    decimal.Decimal       `json:"shippingCost"`
	Tax             decimal.Decimal       `json:"tax"`
	Total           decimal.Decimal       `json:"total"`
	TotalDisplay    string                `json:"totalDisplay"`
	TrackingNumber  *string               `json:"trackingNumber"`
	Notes           string                `json:"notes"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

type OrderListOutput struct {
	Orders     []OrderOutput `json:"orders"`
	Pagination Pagination    `json:"pagination"`
}

// PlaceOrderは入力検証→在庫確保→注文作成→カート削除を1トランザクションで行う。
// 途中で失敗したら在庫の減算も含めて全部rollbackされる
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	log := logger.FromContext(ctx, u.log).With(zap.String("user_id", userID))

	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	in = normalizePlaceOrder(in)
	if fields := validator.InvalidFields(in); len(fields) > 0 {
		return OrderOutput{}, u.placementFailed(ctx, log, NewValidationError(fields...))
	}
	lines, err := mergeItems(in.Items)
	if err != nil {
		return OrderOutput{}, u.placementFailed(ctx, log, err)
	}
	key := in.IdempotencyKey

	// 採番はトランザクションの外で行う（Redis/別接続）
	seq, err := u.seq.Next(ctx)
	if err != nil {
		return OrderOutput{}, u.placementFailed(ctx, log, &OrderPlacementError{Stage: StagePersisting, Err: fmt.Errorf("order sequence: %w", err)})
	}
	now := u.now()
	orderNumber := fmt.Sprintf("RC-%d-%04d", now.UnixMilli(), seq)

	var (
		out      OrderOutput
		replayed bool
	)
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return &OrderPlacementError{Stage: StageValidating, Err: err}
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return &OrderPlacementError{Stage: StageValidating, Err: err}
				}
				out = toOrderOutput(existing, items)
				replayed = true
				return nil
			}
		}

		// 商品は全部そろっていないと注文しない（カート評価と違い黙って除外しない）
		products := make([]model.Product, len(lines))
		for i, l := range lines {
			p, err := r.Products().FindByID(ctx, l.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return productNotFound(l.ProductID)
			}
			if err != nil {
				return &OrderPlacementError{Stage: StageValidating, Err: err}
			}
			if !p.IsActive {
				return productNotFound(l.ProductID)
			}
			products[i] = p
		}

		// 全商品がそろってから在庫を見る
		for i, l := range lines {
			if p := products[i]; p.Stock < l.Quantity {
				return &InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: l.Quantity}
			}
		}

		// 在庫減算（条件付きUPDATEなので同時注文でも売り越さない）
		for _, l := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return &OrderPlacementError{Stage: StageReservingStock, Err: err}
			}
			if !ok {
				var available int64
				if cur, err := r.Products().FindByID(ctx, l.ProductID); err == nil {
					available = cur.Stock
				}
				return &InsufficientStockError{ProductID: l.ProductID, Available: available, Requested: l.Quantity}
			}
		}

		// 金額は在庫確保時点の販売価格で計算
		priced := make([]pricing.Line, len(lines))
		items := make([]model.OrderItem, len(lines))
		for i, l := range lines {
			p := products[i]
			priced[i] = pricing.Line{UnitPrice: p.OfferPrice, Quantity: l.Quantity}
			items[i] = model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.OfferPrice,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			}
		}
		sum := pricing.Calculate(priced)

		order := model.Order{
			OrderNumber: orderNumber,
			UserID:      userID,
			ShippingAddress: model.ShippingAddress{
				FullName:    in.ShippingAddress.FullName,
				PhoneNumber: in.ShippingAddress.PhoneNumber,
				Address:     in.ShippingAddress.Address,
				City:        in.ShippingAddress.City,
				State:       in.ShippingAddress.State,
				Pincode:     in.ShippingAddress.Pincode,
				Country:     in.ShippingAddress.Country,
			},
			PaymentMethod: model.PaymentMethod(in.PaymentMethod),
			PaymentStatus: model.PaymentStatusPending,
			OrderStatus:   model.OrderStatusPending,
			Subtotal:      sum.Subtotal,
			ShippingCost:  sum.Shipping,
			Tax:           sum.Tax,
			Total:         sum.Total,
			Notes:         in.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return &OrderPlacementError{Stage: StagePersisting, Err: err}
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return &OrderPlacementError{Stage: StagePersisting, Err: err}
		}

		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return &OrderPlacementError{Stage: StageClearingCart, Err: err}
		}

		out = toOrderOutput(order, items)
		return nil
	})

	// 同じキーの注文が先に確定していた。rollback後に読み直して同じ結果を返す
	if key != "" && errors.Is(err, repo.ErrDuplicateOrder) {
		existing, ok, lookupErr := u.findByKey(ctx, userID, key)
		if lookupErr == nil && ok {
			log.Info("order replayed after concurrent placement", zap.String("order_number", existing.OrderNumber))
			return existing, nil
		}
	}
	if err != nil {
		return OrderOutput{}, u.placementFailed(ctx, log, err)
	}

	if replayed {
		log.Info("order replayed", zap.String("order_number", out.OrderNumber))
		return out, nil
	}

	u.metrics.OrderPlaced(ctx, out.Total, string(out.PaymentMethod))
	log.Info("order placed",
		zap.String("order_number", out.OrderNumber),
		zap.String("stage", string(StageComplete)),
		zap.Int("items", len(out.Items)),
		zap.String("total", out.TotalDisplay),
	)
	return out, nil
}

func (u *OrderUsecase) findByKey(ctx context.Context, userID, key string) (OrderOutput, bool, error) {
	var (
		out   OrderOutput
		found bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, ok, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil || !ok {
			return err
		}
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		out, found = toOrderOutput(o, items), true
		return nil
	})
	return out, found, err
}

// 失敗理由をメトリクスとログに残す
func (u *OrderUsecase) placementFailed(ctx context.Context, log *zap.Logger, err error) error {
	var (
		ve *ValidationError
		ne *NotFoundError
		se *InsufficientStockError
		pe *OrderPlacementError
	)
	switch {
	case errors.As(err, &ve):
		u.metrics.OrderPlacementFailed(ctx, "validation")
		log.Info("order rejected", zap.Strings("fields", ve.Fields))
	case errors.As(err, &ne):
		u.metrics.OrderPlacementFailed(ctx, "not_found")
		log.Info("order rejected", zap.Error(err))
	case errors.As(err, &se):
		u.metrics.OrderPlacementFailed(ctx, "insufficient_stock")
		log.Info("order rejected",
			zap.Int64("product_id", se.ProductID),
			zap.Int64("available", se.Available),
			zap.Int64("requested", se.Requested),
		)
	case errors.As(err, &pe):
		u.metrics.OrderPlacementFailed(ctx, "internal")
		log.Error("order placement failed", zap.String("stage", string(pe.Stage)), zap.Error(pe.Err))
	default:
		u.metrics.OrderPlacementFailed(ctx, "internal")
		log.Error("order placement failed", zap.Error(err))
		err = &OrderPlacementError{Stage: StagePersisting, Err: err}
	}
	return err
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string, page, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page, limit = normalizePage(page, limit, 10)

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out.Orders = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Orders = append(out.Orders, toOrderOutput(o, items))
		}
		out.Pagination = newPagination(page, limit, total)
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 管理者以外は自分の注文だけ。他人の注文は存在しない扱い
func (u *OrderUsecase) GetOrder(ctx context.Context, userID string, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(orderID)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !isAdmin && o.UserID != userID {
			return orderNotFound(orderID)
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func normalizePlaceOrder(in PlaceOrderInput) PlaceOrderInput {
	a := &in.ShippingAddress
	a.FullName = strings.TrimSpace(a.FullName)
	a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = model.DefaultCountry
	}
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.Notes = strings.TrimSpace(in.Notes)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	return in
}

// 同じ商品は数量を合算（最初に出た位置を残す）
// 合算後もMaxItemQuantityを超えたらValidationError
func mergeItems(items []PlaceOrderItem) ([]PlaceOrderItem, error) {
	out := make([]PlaceOrderItem, 0, len(items))
	pos := make(map[int64]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxItemQuantity {
			return nil, NewValidationError("items")
		}
		i, ok := pos[it.ProductID]
		if !ok {
			pos[it.ProductID] = len(out)
			out = append(out, it)
			continue
		}
		// 両方とも上限以下なので足してもあふれない
		if out[i].Quantity > MaxItemQuantity-it.Quantity {
			return nil, NewValidationError("items")
		}
		out[i].Quantity += it.Quantity
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: pricing.LineTotal(it.UnitPriceSnapshot, it.Quantity),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Items:           outItems,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		Tax:             o.Tax,
		Total:           o.Total,
		TotalDisplay:    pricing.Display(o.Total),
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
