package handler

import (
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /me と /admin/users
type UserHandler struct {
	cfg      config.Config
	userRepo repository.UserRepository
	uc       *usecase.UserUsecase
}

func NewUserHandler(cfg config.Config, userRepo repository.UserRepository, uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{cfg: cfg, userRepo: userRepo, uc: uc}
}

type UserActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/me", h.me, middleware.AuthJWT(h.cfg), middleware.UserSync(h.userRepo))

	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.cfg),
		middleware.UserSync(h.userRepo),
		middleware.AdminRoleGuard(),
	)
	admin.PATCH("/users/:id/active", h.setActive)
}

func (h *UserHandler) me(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)

	u, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", u)
}

func (h *UserHandler) setActive(c echo.Context) error {
	adminID, _ := getUserIDFromContext(c)

	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req UserActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return fail(c, http.StatusBadRequest, "isActive is required")
	}

	u, err := h.uc.AdminSetActive(c.Request().Context(), adminID, userID, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "User updated", u)
}
