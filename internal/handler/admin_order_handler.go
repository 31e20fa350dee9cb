package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.UserSync(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	var f repository.AdminOrderListFilter
	var err error

	if f.Page, err = queryInt(c, "page"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid page")
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	f.OrderStatus = c.QueryParam("status")
	f.UserID = queryStringPtr(c, "userId")

	if f.From, err = queryTimePtr(c, "from"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid from")
	}
	if f.To, err = queryTimePtr(c, "to"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}
