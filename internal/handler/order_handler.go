package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type OrderHandler struct {
	uc      *usecase.OrderUsecase
	adminUC *usecase.AdminOrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, adminUC *usecase.AdminOrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, adminUC: adminUC}
}

type OrderCreateRequest struct {
	UserID          string                       `json:"userId"`
	Items           []usecase.PlaceOrderItem     `json:"items"`
	ShippingAddress usecase.ShippingAddressInput `json:"shippingAddress"`
	PaymentMethod   string                       `json:"paymentMethod"`
	Notes           string                       `json:"notes"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.UserSync(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.PUT("/:id", h.update, middleware.AdminRoleGuard())
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	userID, err := checkUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get(HeaderIdempotencyKey)

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		IdempotencyKey:  idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, "Order placed successfully", out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := checkUserID(c, c.QueryParam("userId"))
	if err != nil {
		return writeError(c, err)
	}

	page, err := queryInt(c, "page")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid page")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)

	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), userID, middleware.IsAdmin(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *OrderHandler) update(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req usecase.UpdateOrderInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.adminUC.UpdateOrder(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Order updated", out)
}
