package middleware

import (
	"net/http"
	"slices"

	"storefront/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// RequireRoleはAuthJWTの後ろに置く。roles以外は403
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !slices.Contains(roles, role) {
				return c.JSON(http.StatusForbidden, errorJSON(string(roles[0])+" only"))
			}
			return next(c)
		}
	}
}

// customer/sellerは拒否
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}
