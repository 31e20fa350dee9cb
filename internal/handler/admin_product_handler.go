package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫更新の入力
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.UserSync(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.PUT("/inventory/:product_id", h.updateInventory)
	admin.GET("/inventory/:product_id/adjustments", h.listAdjustments)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	var req usecase.AdminProductInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, "Product created", p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req usecase.AdminProductInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Product updated", p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Product deleted", nil)
}

func (h *AdminProductHandler) updateInventory(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	id, valid := pathID(c, "product_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product_id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	p, err := h.uc.AdminUpdateInventory(c.Request().Context(), adminID, id, req.Stock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Stock updated", p)
}

func (h *AdminProductHandler) listAdjustments(c echo.Context) error {
	id, valid := pathID(c, "product_id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product_id")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}

	items, err := h.uc.AdminListAdjustments(c.Request().Context(), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", items)
}
