package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Newはmiddlewareとルートを載せたechoを返す
func New(cfg config.Config, log *zap.Logger, rec *metrics.Recorder, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.Recover())
	e.Use(logger.RequestLogger(log))
	e.Use(rec.HTTPMiddleware())

	RegisterRoutes(e, cfg, userRepo, h)
	return e
}

// echo由来のエラー（404/405/bind失敗/panic）も同じ形で返す
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(status)
		}
	} else {
		logger.FromContext(c.Request().Context(), nil).Error("unhandled error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, handler.Response{Success: false, Message: msg})
}

// Startはctxが終わるまでlistenし、終わったらshutdownTimeout内で止める
func Start(ctx context.Context, e *echo.Echo, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
