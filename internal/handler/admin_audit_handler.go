package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminAuditHandler struct {
	uc *usecase.AuditUsecase
}

func NewAdminAuditHandler(uc *usecase.AuditUsecase) *AdminAuditHandler {
	return &AdminAuditHandler{uc: uc}
}

func (h *AdminAuditHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.UserSync(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/audit-logs", h.list)
}

func (h *AdminAuditHandler) list(c echo.Context) error {
	var f repository.AuditLogFilter
	var err error

	f.ActorUserID = queryStringPtr(c, "actorUserId")
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resourceType"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if f.ResourceID, err = queryInt64Ptr(c, "resourceId"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid resourceId")
	}
	if f.CreatedFrom, err = queryTimePtr(c, "from"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid from")
	}
	if f.CreatedTo, err = queryTimePtr(c, "to"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid to")
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return fail(c, http.StatusBadRequest, "invalid offset")
	}

	logs, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", logs)
}
