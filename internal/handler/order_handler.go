package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/orders", middleware.RequireBuyer())

	g.POST("/checkout", h.checkout)
	g.POST("/pay", h.pay)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/confirm", h.confirm)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Checkout(c.Request().Context(), buyer)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *OrderHandler) pay(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.PayInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Pay(c.Request().Context(), buyer, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// ?status=PENDING などで絞り込み
func (h *OrderHandler) list(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListMine(c.Request().Context(), buyer, c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Detail(c.Request().Context(), buyer, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *OrderHandler) confirm(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Confirm(c.Request().Context(), buyer, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Cancel(c.Request().Context(), buyer, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
