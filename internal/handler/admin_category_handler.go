package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminCategoryHandler struct {
	uc *usecase.CategoryUsecase
}

func NewAdminCategoryHandler(uc *usecase.CategoryUsecase) *AdminCategoryHandler {
	return &AdminCategoryHandler{uc: uc}
}

func (h *AdminCategoryHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.UserSync(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/categories", h.create)
}

func (h *AdminCategoryHandler) create(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	var req usecase.AdminCategoryInput
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	cat, err := h.uc.AdminCreate(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, "Category created", cat)
}
