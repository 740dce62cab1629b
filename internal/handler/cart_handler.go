package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/cart", middleware.RequireBuyer())

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addToCart)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.Request().Context(), buyer)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AddCartInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Add(c.Request().Context(), buyer, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.UpdateCartItemInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateQuantity(c.Request().Context(), buyer, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Remove(c.Request().Context(), buyer, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Clear(c.Request().Context(), buyer)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
