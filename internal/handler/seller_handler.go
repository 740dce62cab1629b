package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

// /seller 配下（商品・在庫・注文・ダッシュボード）をまとめる
type SellerHandler struct {
	products *usecase.ProductUsecase
	orders   *usecase.SellerOrderUsecase
}

// DI
func NewSellerHandler(products *usecase.ProductUsecase, orders *usecase.SellerOrderUsecase) *SellerHandler {
	return &SellerHandler{products: products, orders: orders}
}

func (h *SellerHandler) RegisterRoutes(api *echo.Group) {
	seller := api.Group("/seller", middleware.RequireSeller())

	seller.GET("/dashboard", h.dashboard)
	seller.GET("/activity", h.activity)

	seller.GET("/products", h.listProducts)
	seller.POST("/products", h.createProduct)
	seller.GET("/products/:id", h.getProduct)
	seller.PUT("/products/:id", h.updateProduct)
	seller.DELETE("/products/:id", h.deleteProduct)
	seller.PATCH("/products/:id/active", h.setActive)
	seller.PUT("/products/:id/stock", h.adjustStock)
	seller.GET("/products/:id/stock-history", h.stockHistory)

	seller.GET("/orders", h.listOrders)
	seller.GET("/orders/:id", h.orderDetail)
	seller.POST("/orders/:id/ship", h.ship)
	seller.POST("/orders/:id/cancel", h.cancelOrder)
}

func (h *SellerHandler) dashboard(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.products.Dashboard(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) activity(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.products.Activity(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) listProducts(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.products.ListMine(c.Request().Context(), s)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) createProduct(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.CreateProductInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.products.Create(c.Request().Context(), s, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *SellerHandler) getProduct(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.products.Get(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) updateProduct(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.ProductInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.products.Update(c.Request().Context(), s, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) deleteProduct(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.products.Delete(c.Request().Context(), s, id); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}

func (h *SellerHandler) setActive(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.SetActiveInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.products.SetActive(c.Request().Context(), s, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) adjustStock(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AdjustStockInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.products.AdjustStock(c.Request().Context(), s, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) stockHistory(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.products.StockHistory(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) listOrders(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.List(c.Request().Context(), s, c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) orderDetail(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.Detail(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) ship(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.ShipInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.Ship(c.Request().Context(), s, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *SellerHandler) cancelOrder(c echo.Context) error {
	s, err := currentSeller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.Cancel(c.Request().Context(), s, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
