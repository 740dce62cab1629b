package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketplace/internal/handler"
)

// Handlers はルート登録に必要なハンドラ一式
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Address *handler.AddressHandler
	Review  *handler.ReviewHandler
	Seller  *handler.SellerHandler
	Upload  *handler.UploadHandler
	Page    *handler.PageHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	h.Auth.RegisterRoutes(api)
	h.Catalog.RegisterRoutes(api)
	h.Review.RegisterRoutes(api)
	h.Cart.RegisterRoutes(api)
	h.Order.RegisterRoutes(api)
	h.Address.RegisterRoutes(api)
	h.Seller.RegisterRoutes(api)
	h.Upload.RegisterRoutes(api)

	//画面はAPIより後に登録する
	h.Page.RegisterRoutes(e)
}
