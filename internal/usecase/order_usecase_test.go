package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type orderFixture struct {
	uc    *OrderUsecase
	tx    *TxManagerMock
	repos *TxReposMock
	seq   *SequenceMock
	spy   *metricsSpy
	logs  *observer.ObservedLogs
}

func newOrderFixture() *orderFixture {
	core, logs := observer.New(zap.InfoLevel)
	repos := newTxReposMock()
	txm := &TxManagerMock{Repos: repos}
	txm.On("WithinTx", mock.Anything)
	seq := new(SequenceMock)
	spy := &metricsSpy{}

	uc := NewOrderUsecase(txm, seq, spy, zap.New(core))
	uc.now = func() time.Time { return fixedNow }
	return &orderFixture{uc: uc, tx: txm, repos: repos, seq: seq, spy: spy, logs: logs}
}

func placeInput(items ...PlaceOrderItem) PlaceOrderInput {
	return PlaceOrderInput{
		Items: items,
		ShippingAddress: ShippingAddressInput{
			FullName:    "Ann Lee",
			PhoneNumber: "555-0100",
			Address:     "1 Main St",
			City:        "Springfield",
			State:       "IL",
			Pincode:     "62701",
		},
		PaymentMethod: "credit_card",
	}
}

func product(id int64, price string, stock int64) model.Product {
	return model.Product{
		ID:         id,
		Name:       fmt.Sprintf("Product %d", id),
		Price:      dec(price),
		OfferPrice: dec(price),
		Stock:      stock,
		IsActive:   true,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(7), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(3)).Return(true, nil)
	f.repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.UserID == "u1" &&
			o.Subtotal.Equal(dec("60")) &&
			o.ShippingCost.IsZero() &&
			o.Tax.Equal(dec("4.8")) &&
			o.Total.Equal(dec("64.8")) &&
			o.OrderStatus == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusPending &&
			o.ShippingAddress.Country == model.DefaultCountry &&
			o.IdempotencyKey == nil
	})).Return(int64(42), nil)
	f.repos.orderItems.On("CreateBulk", mock.Anything, int64(42), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 &&
			items[0].ProductNameSnapshot == "Product 1" &&
			items[0].UnitPriceSnapshot.Equal(dec("20")) &&
			items[0].Quantity == 3
	})).Return(nil)
	f.repos.cartItems.On("ClearByUserID", mock.Anything, "u1").Return(nil)

	out, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, fmt.Sprintf("RC-%d-0007", fixedNow.UnixMilli()), out.OrderNumber)
	assert.Equal(t, "64.80", out.TotalDisplay)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].LineTotal.Equal(dec("60")))
	assert.Equal(t, []string{"64.8"}, f.spy.placed)
	assert.Empty(t, f.spy.failures)
	assert.Equal(t, 1, f.logs.FilterMessage("order placed").Len())

	f.repos.inventory.AssertExpectations(t)
	f.repos.cartItems.AssertExpectations(t)
}

func TestPlaceOrder_ValidationListsEveryField(t *testing.T) {
	f := newOrderFixture()

	in := placeInput()
	in.ShippingAddress.FullName = "   "
	in.PaymentMethod = "cash"

	_, err := f.uc.PlaceOrder(context.Background(), "u1", in)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{"items", "shippingAddress.fullName", "paymentMethod"}, ve.Fields)
	assert.Equal(t, []string{"validation"}, f.spy.failures)

	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
	f.seq.AssertNotCalled(t, "Next", mock.Anything)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(
		PlaceOrderItem{ProductID: 1, Quantity: 1},
		PlaceOrderItem{ProductID: 2, Quantity: 0},
	))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"items[1].quantity"}, ve.Fields)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 9, Quantity: 1}))

	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "product", ne.Kind)
	assert.Equal(t, "9", ne.ID)
	assert.Equal(t, []string{"not_found"}, f.spy.failures)

	f.repos.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
	f.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_InactiveProductIsNotFound(t *testing.T) {
	f := newOrderFixture()
	p := product(3, "5", 10)
	p.IsActive = false
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(3)).Return(p, nil)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 3, Quantity: 1}))

	var ne *NotFoundError
	assert.ErrorAs(t, err, &ne)
}

func TestPlaceOrder_InsufficientStockBeforeAnyDecrement(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(2)).Return(product(2, "10", 1), nil)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(
		PlaceOrderItem{ProductID: 1, Quantity: 1},
		PlaceOrderItem{ProductID: 2, Quantity: 2},
	))

	var se *InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, InsufficientStockError{ProductID: 2, Available: 1, Requested: 2}, *se)
	assert.Equal(t, []string{"insufficient_stock"}, f.spy.failures)

	status, _ := StatusOf(err)
	assert.Equal(t, http.StatusBadRequest, status)

	f.repos.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_ConditionalDecrementLost(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil).Once()
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 0), nil).Once()
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(3)).Return(false, nil)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 3}))

	var se *InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(0), se.Available)
	assert.Equal(t, int64(3), se.Requested)
	f.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_InfraErrorIsWrapped(t *testing.T) {
	f := newOrderFixture()
	diskFull := errors.New("disk full")

	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)
	f.repos.orders.On("Create", mock.Anything, mock.Anything).Return(int64(5), nil)
	f.repos.orderItems.On("CreateBulk", mock.Anything, int64(5), mock.Anything).Return(diskFull)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 1}))

	var pe *OrderPlacementError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StagePersisting, pe.Stage)
	assert.ErrorIs(t, err, diskFull)

	status, msg := StatusOf(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, msg, "disk full")

	entries := f.logs.FilterMessage("order placement failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "persisting", entries[0].ContextMap()["stage"])
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.Equal(t, []string{"internal"}, f.spy.failures)
	f.repos.cartItems.AssertNotCalled(t, "ClearByUserID", mock.Anything, mock.Anything)
}

func TestPlaceOrder_ClearCartFailure(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)
	f.repos.orders.On("Create", mock.Anything, mock.Anything).Return(int64(5), nil)
	f.repos.orderItems.On("CreateBulk", mock.Anything, int64(5), mock.Anything).Return(nil)
	f.repos.cartItems.On("ClearByUserID", mock.Anything, "u1").Return(errors.New("locked"))

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 1}))

	var pe *OrderPlacementError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageClearingCart, pe.Stage)
	assert.Empty(t, f.spy.placed)
}

func TestPlaceOrder_SequenceFailure(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(0), errors.New("redis down"))

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 1}))

	var pe *OrderPlacementError
	require.ErrorAs(t, err, &pe)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPlaceOrder_MergesDuplicateItems(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "10", 10), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(2)).Return(product(2, "5", 10), nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(3)).Return(true, nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(2), int64(1)).Return(true, nil)
	f.repos.orders.On("Create", mock.Anything, mock.Anything).Return(int64(8), nil)
	f.repos.orderItems.On("CreateBulk", mock.Anything, int64(8), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 &&
			items[0].ProductID == 1 && items[0].Quantity == 3 &&
			items[1].ProductID == 2 && items[1].Quantity == 1
	})).Return(nil)
	f.repos.cartItems.On("ClearByUserID", mock.Anything, "u1").Return(nil)

	out, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(
		PlaceOrderItem{ProductID: 1, Quantity: 1},
		PlaceOrderItem{ProductID: 2, Quantity: 1},
		PlaceOrderItem{ProductID: 1, Quantity: 2},
	))
	require.NoError(t, err)

	// 35.00 は送料対象
	assert.True(t, out.Subtotal.Equal(dec("35")))
	assert.True(t, out.ShippingCost.Equal(dec("10")))
	assert.True(t, out.Tax.Equal(dec("2.8")))
	assert.True(t, out.Total.Equal(dec("47.8")))
	f.repos.inventory.AssertExpectations(t)
}

func TestPlaceOrder_HugeQuantitiesAreRejected(t *testing.T) {
	tests := []struct {
		name       string
		items      []PlaceOrderItem
		wantFields []string
	}{
		{
			name: "each line over the cap",
			items: []PlaceOrderItem{
				{ProductID: 1, Quantity: math.MaxInt64},
				{ProductID: 1, Quantity: math.MaxInt64},
			},
			wantFields: []string{"items[0].quantity", "items[1].quantity"},
		},
		{
			name: "merged lines over the cap",
			items: []PlaceOrderItem{
				{ProductID: 1, Quantity: MaxItemQuantity},
				{ProductID: 2, Quantity: 1},
				{ProductID: 1, Quantity: 1},
			},
			wantFields: []string{"items"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()

			_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(tt.items...))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.ElementsMatch(t, tt.wantFields, ve.Fields)
			assert.Equal(t, []string{"validation"}, f.spy.failures)

			// 在庫にも注文にも触れない
			f.seq.AssertNotCalled(t, "Next", mock.Anything)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestMergeItems(t *testing.T) {
	out, err := mergeItems([]PlaceOrderItem{
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: MaxItemQuantity - 1},
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []PlaceOrderItem{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: MaxItemQuantity}}, out)

	_, err = mergeItems([]PlaceOrderItem{{ProductID: 1, Quantity: math.MaxInt64}, {ProductID: 1, Quantity: math.MaxInt64}})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = mergeItems([]PlaceOrderItem{{ProductID: 1, Quantity: 0}})
	assert.ErrorAs(t, err, &ve)
}

func TestPlaceOrder_MissingProductWinsOverShortStock(t *testing.T) {
	f := newOrderFixture()
	f.seq.On("Next", mock.Anything).Return(int64(1), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 0), nil)
	f.repos.products.On("FindByID", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := f.uc.PlaceOrder(context.Background(), "u1", placeInput(
		PlaceOrderItem{ProductID: 1, Quantity: 3},
		PlaceOrderItem{ProductID: 9, Quantity: 1},
	))

	var ne *NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "9", ne.ID)
	f.repos.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	f := newOrderFixture()
	existing := model.Order{ID: 42, OrderNumber: "RC-1-0001", UserID: "u1", Total: dec("64.8"), OrderStatus: model.OrderStatusPending}

	f.seq.On("Next", mock.Anything).Return(int64(2), nil)
	f.repos.orders.On("FindByIdempotencyKey", mock.Anything, "u1", "k1").Return(existing, true, nil)
	f.repos.orderItems.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{
		{OrderID: 42, ProductID: 1, ProductNameSnapshot: "Mug", UnitPriceSnapshot: dec("20"), Quantity: 3},
	}, nil)

	in := placeInput(PlaceOrderItem{ProductID: 1, Quantity: 3})
	in.IdempotencyKey = "  k1 "
	out, err := f.uc.PlaceOrder(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, "RC-1-0001", out.OrderNumber)
	assert.Len(t, out.Items, 1)
	assert.Empty(t, f.spy.placed)
	f.repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.repos.inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_ConcurrentSameKeyReturnsWinner(t *testing.T) {
	f := newOrderFixture()
	winner := model.Order{ID: 77, OrderNumber: "RC-1-0009", UserID: "u1"}

	f.seq.On("Next", mock.Anything).Return(int64(3), nil)
	f.repos.orders.On("FindByIdempotencyKey", mock.Anything, "u1", "k1").Return(model.Order{}, false, nil).Once()
	f.repos.orders.On("FindByIdempotencyKey", mock.Anything, "u1", "k1").Return(winner, true, nil).Once()
	f.repos.products.On("FindByID", mock.Anything, int64(1)).Return(product(1, "20", 5), nil)
	f.repos.inventory.On("DecreaseStockIfEnough", mock.Anything, int64(1), int64(1)).Return(true, nil)
	f.repos.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.IdempotencyKey != nil && *o.IdempotencyKey == "k1"
	})).Return(int64(0), repo.ErrDuplicateOrder)
	f.repos.orderItems.On("ListByOrderID", mock.Anything, int64(77)).Return([]model.OrderItem{}, nil)

	in := placeInput(PlaceOrderItem{ProductID: 1, Quantity: 1})
	in.IdempotencyKey = "k1"
	out, err := f.uc.PlaceOrder(context.Background(), "u1", in)
	require.NoError(t, err)

	assert.Equal(t, int64(77), out.ID)
	f.tx.AssertNumberOfCalls(t, "WithinTx", 2)
	assert.Empty(t, f.spy.failures)
}

func TestPlaceOrder_Unauthorized(t *testing.T) {
	f := newOrderFixture()
	_, err := f.uc.PlaceOrder(context.Background(), "", placeInput(PlaceOrderItem{ProductID: 1, Quantity: 1}))

	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
}

func TestListMyOrders_Pagination(t *testing.T) {
	f := newOrderFixture()
	orders := []model.Order{{ID: 2, UserID: "u1"}, {ID: 1, UserID: "u1"}}
	f.repos.orders.On("ListByUserID", mock.Anything, "u1", 1, 10).Return(orders, int64(12), nil)
	f.repos.orderItems.On("ListByOrderID", mock.Anything, mock.Anything).Return([]model.OrderItem{}, nil)

	out, err := f.uc.ListMyOrders(context.Background(), "u1", 0, 0)
	require.NoError(t, err)

	assert.Len(t, out.Orders, 2)
	assert.Equal(t, int64(2), out.Orders[0].ID)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 2, Total: 12, HasNext: true, HasPrev: false}, out.Pagination)
}

func TestGetOrder_OwnerCheck(t *testing.T) {
	f := newOrderFixture()
	o := model.Order{ID: 5, UserID: "owner"}
	f.repos.orders.On("FindByID", mock.Anything, int64(5)).Return(o, nil)
	f.repos.orders.On("FindByID", mock.Anything, int64(6)).Return(model.Order{}, repo.ErrNotFound)
	f.repos.orderItems.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)

	_, err := f.uc.GetOrder(context.Background(), "someone", false, 5)
	var ne *NotFoundError
	assert.ErrorAs(t, err, &ne)

	out, err := f.uc.GetOrder(context.Background(), "owner", false, 5)
	require.NoError(t, err)
	assert.Equal(t, "owner", out.UserID)

	_, err = f.uc.GetOrder(context.Background(), "admin-1", true, 5)
	assert.NoError(t, err)

	_, err = f.uc.GetOrder(context.Background(), "owner", false, 6)
	assert.ErrorAs(t, err, &ne)
	assert.Equal(t, "order", ne.Kind)
}
