package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type CartUpdateRequest struct {
	UserID    string `json:"userId"`
	ProductID int64  `json:"productId"`
	Quantity  *int64 `json:"quantity"`
	Action    string `json:"action"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/cart")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.UserSync(userRepo))

	g.GET("", h.getCart)
	g.POST("", h.updateCart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, err := checkUserID(c, c.QueryParam("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *CartHandler) updateCart(c echo.Context) error {
	var req CartUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	userID, err := checkUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateCart(c.Request().Context(), userID, usecase.UpdateCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Action:    req.Action,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Cart updated", out)
}
