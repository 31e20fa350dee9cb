package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx      repo.TransactionManager
	metrics OrderMetrics
	// trueなら model.CanTransition の表に従う
	strict bool
}

func NewAdminOrderUsecase(tx repo.TransactionManager, metrics OrderMetrics, strict bool) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, metrics: metrics, strict: strict}
}

// nilの項目は変更しない
type UpdateOrderInput struct {
	OrderStatus    *string `json:"orderStatus"`
	PaymentStatus  *string `json:"paymentStatus"`
	TrackingNumber *string `json:"trackingNumber"`
}

// 監査ログに残す項目
type orderAuditSnapshot struct {
	OrderStatus    model.OrderStatus   `json:"orderStatus"`
	PaymentStatus  model.PaymentStatus `json:"paymentStatus"`
	TrackingNumber *string             `json:"trackingNumber"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, 20)
	if f.OrderStatus != "" && !model.OrderStatus(f.OrderStatus).Valid() {
		return OrderListOutput{}, NewValidationError("status")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
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
		out.Pagination = newPagination(f.Page, f.Limit, total)
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// UpdateOrderは指定された項目だけ更新する。
// cancelledに入るときは在庫を戻し、cancelledから出るときは在庫を確保し直す
func (u *AdminOrderUsecase) UpdateOrder(ctx context.Context, actorID string, orderID int64, in UpdateOrderInput) (OrderOutput, error) {
	if actorID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var (
		upd    repo.OrderUpdate
		fields []string
	)
	if in.OrderStatus != nil {
		s := model.OrderStatus(strings.TrimSpace(*in.OrderStatus))
		if !s.Valid() {
			fields = append(fields, "orderStatus")
		}
		upd.OrderStatus = &s
	}
	if in.PaymentStatus != nil {
		s := model.PaymentStatus(strings.TrimSpace(*in.PaymentStatus))
		if !s.Valid() {
			fields = append(fields, "paymentStatus")
		}
		upd.PaymentStatus = &s
	}
	if in.TrackingNumber != nil {
		tn := strings.TrimSpace(*in.TrackingNumber)
		if len(tn) > 255 {
			fields = append(fields, "trackingNumber")
		}
		upd.TrackingNumber = &tn
	}
	if len(fields) > 0 {
		return OrderOutput{}, NewValidationError(fields...)
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

		if upd.OrderStatus != nil && *upd.OrderStatus != o.OrderStatus {
			from, to := o.OrderStatus, *upd.OrderStatus
			if u.strict && !model.CanTransition(from, to) {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("cannot change order status from %s to %s", from, to))
			}
			if err := adjustStockForStatus(ctx, r, orderID, from, to); err != nil {
				return err
			}
		}

		if err := r.Orders().Update(ctx, orderID, upd); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return orderNotFound(orderID)
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		updated, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（UPDATE_ORDER）
		before, _ := json.Marshal(orderAuditSnapshot{o.OrderStatus, o.PaymentStatus, o.TrackingNumber})
		after, _ := json.Marshal(orderAuditSnapshot{updated.OrderStatus, updated.PaymentStatus, updated.TrackingNumber})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   string(before),
			AfterJSON:    string(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(updated, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.metrics.OrderUpdated(ctx, string(out.OrderStatus))
	return out, nil
}

func adjustStockForStatus(ctx context.Context, r repo.TxRepos, orderID int64, from, to model.OrderStatus) error {
	if to != model.OrderStatusCancelled && from != model.OrderStatusCancelled {
		return nil
	}

	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, it := range items {
		if to == model.OrderStatusCancelled {
			// 在庫戻し
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			continue
		}

		// キャンセル取り消し
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			var available int64
			if p, err := r.Products().FindByID(ctx, it.ProductID); err == nil {
				available = p.Stock
			}
			return &InsufficientStockError{ProductID: it.ProductID, Available: available, Requested: it.Quantity}
		}
	}
	return nil
}
