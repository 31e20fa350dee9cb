package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 全APIで共通のレスポンス
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Message: message})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	status, msg := usecase.StatusOf(err)

	var ve *usecase.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(status, Response{Success: false, Message: msg, Errors: ve.Fields})
	}

	//500は中身を出さずにログへ
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context(), nil).Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return fail(c, status, msg)
}

func getUserIDFromContext(c echo.Context) (string, bool) {
	id := middleware.UserID(c)
	return id, id != ""
}

// query/bodyのuserIdは省略可。指定されたらトークンのsubjectと一致させる
func checkUserID(c echo.Context, claimed string) (string, error) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return "", usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if claimed != "" && claimed != userID {
		return "", usecase.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return userID, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func queryDecimalPtr(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func queryBoolPtr(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RFC3339のみ受け付ける
func queryTimePtr(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func queryStringPtr(c echo.Context, name string) *string {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}
