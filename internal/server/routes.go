package server

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// 起動時に組み立てたhandler一式
type Handlers struct {
	Product       *handler.ProductHandler
	Category      *handler.CategoryHandler
	Cart          *handler.CartHandler
	Wishlist      *handler.WishlistHandler
	Order         *handler.OrderHandler
	User          *handler.UserHandler
	AdminProduct  *handler.AdminProductHandler
	AdminOrder    *handler.AdminOrderHandler
	AdminCategory *handler.AdminCategoryHandler
	AdminAudit    *handler.AdminAuditHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	})

	// 公開
	h.Product.RegisterRoutes(e)
	h.Category.RegisterRoutes(e)

	// 要ログイン
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Wishlist.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.User.RegisterRoutes(e)

	// admin
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminCategory.RegisterRoutes(e, cfg, userRepo)
	h.AdminAudit.RegisterRoutes(e, cfg, userRepo)
}
