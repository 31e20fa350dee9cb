package middleware

import (
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserSyncはトークンのユーザーをDBに反映する（無ければ作成）。
// 無効化されたユーザーは403。AuthJWTの後に置く
func UserSync(users repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logger.FromContext(ctx, nil)

			userID := UserID(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			role, _ := c.Get(CtxUserRoleKey).(model.Role)
			name, _ := c.Get(CtxUserNameKey).(string)
			email, _ := c.Get(CtxUserEmailKey).(string)

			u, err := users.FindByID(ctx, userID)
			switch {
			case errors.Is(err, repo.ErrNotFound):
				u = &model.User{ID: userID, Name: name, Email: email, Role: role, IsActive: true}
				if err := users.Create(ctx, u); err != nil {
					// 同時リクエストで先に作られた
					existing, findErr := users.FindByID(ctx, userID)
					if findErr != nil {
						l.Error("user sync failed", zap.String("user_id", userID), zap.Error(err))
						return c.JSON(http.StatusInternalServerError, errorJSON("internal server error"))
					}
					u = existing
				}
			case err != nil:
				l.Error("user lookup failed", zap.String("user_id", userID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, errorJSON("internal server error"))
			default:
				if (name != "" && u.Name != name) || (email != "" && u.Email != email) || u.Role != role {
					if name != "" {
						u.Name = name
					}
					if email != "" {
						u.Email = email
					}
					u.Role = role
					if err := users.Update(ctx, u); err != nil {
						l.Warn("user profile update failed", zap.String("user_id", userID), zap.Error(err))
					}
				}
			}

			if !u.IsActive {
				return c.JSON(http.StatusForbidden, errorJSON("account disabled"))
			}
			return next(c)
		}
	}
}
