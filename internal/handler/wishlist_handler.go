package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

type WishlistUpdateRequest struct {
	UserID    string `json:"userId"`
	ProductID int64  `json:"productId"`
	Action    string `json:"action"`
}

func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/wishlist")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.UserSync(userRepo))

	g.GET("", h.get)
	g.POST("", h.update)
}

func (h *WishlistHandler) get(c echo.Context) error {
	userID, err := checkUserID(c, c.QueryParam("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Get(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *WishlistHandler) update(c echo.Context) error {
	var req WishlistUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	userID, err := checkUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Update(c.Request().Context(), userID, req.ProductID, req.Action)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out.Message, out)
}
