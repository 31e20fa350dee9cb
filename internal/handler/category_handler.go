package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.list)
	e.GET("/categories/:slug", h.detail)
}

func (h *CategoryHandler) list(c echo.Context) error {
	active, err := queryBoolPtr(c, "active")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid active")
	}

	items, err := h.uc.List(c.Request().Context(), active != nil && *active)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", items)
}

func (h *CategoryHandler) detail(c echo.Context) error {
	in, msg, valid := bindListProducts(c)
	if !valid {
		return fail(c, http.StatusBadRequest, msg)
	}

	out, err := h.uc.GetBySlug(c.Request().Context(), c.Param("slug"), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}
