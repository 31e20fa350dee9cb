package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 公開カタログ。認証なし
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

// page/limit/category/search/minPrice/maxPrice/featured/sortByを読む
func bindListProducts(c echo.Context) (usecase.ListProductsInput, string, bool) {
	var in usecase.ListProductsInput
	var err error

	if in.Page, err = queryInt(c, "page"); err != nil {
		return in, "invalid page", false
	}
	if in.Limit, err = queryInt(c, "limit"); err != nil {
		return in, "invalid limit", false
	}
	if in.CategoryID, err = queryInt64Ptr(c, "category"); err != nil {
		return in, "invalid category", false
	}
	if in.MinPrice, err = queryDecimalPtr(c, "minPrice"); err != nil {
		return in, "invalid minPrice", false
	}
	if in.MaxPrice, err = queryDecimalPtr(c, "maxPrice"); err != nil {
		return in, "invalid maxPrice", false
	}
	if in.Featured, err = queryBoolPtr(c, "featured"); err != nil {
		return in, "invalid featured", false
	}
	in.Search = c.QueryParam("search")
	in.SortBy = c.QueryParam("sortBy")
	return in, "", true
}

func (h *ProductHandler) list(c echo.Context) error {
	in, msg, valid := bindListProducts(c)
	if !valid {
		return fail(c, http.StatusBadRequest, msg)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", p)
}
