package middleware

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string（IDプロバイダのsubject）
	CtxUserRoleKey  = "user_role"  // model.Role
	CtxUserNameKey  = "user_name"  // string
	CtxUserEmailKey = "user_email" // string
)

// 上流のIDプロバイダが発行したHS256トークンを検証する。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			userID, _ := claims["sub"].(string)
			userID = strings.TrimSpace(userID)
			if userID == "" || len(userID) > 128 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//roleを取り出す（customer/seller/admin）
			rawRole, _ := claims["role"].(string)
			role := model.Role(rawRole)
			if !role.Valid() {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			name, _ := claims["name"].(string)
			email, _ := claims["email"].(string)

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxUserNameKey, name)
			c.Set(CtxUserEmailKey, email)

			return next(c)
		}
	}
}

// AuthJWTを通っていなければ空文字
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return role == model.RoleAdmin
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg}
}
