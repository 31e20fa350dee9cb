package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// RequestLoggerはrequest_idを振ってアクセスログを出す
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, id)
			c.SetRequest(req.WithContext(WithRequestID(req.Context(), base, id)))

			start := time.Now()
			err := next(c)
			if err != nil {
				// echoのエラーハンドラにステータスを決めさせる
				c.Error(err)
			}

			FromContext(c.Request().Context(), base).Info("http request",
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		}
	}
}
