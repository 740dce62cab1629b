package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

func (h *AddressHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/addresses", middleware.RequireAuth())

	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/default", h.SetDefault)
}

func (h *AddressHandler) List(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.List(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, list)
}

func (h *AddressHandler) Create(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AddressInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), p.UserID, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *AddressHandler) Update(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.AddressInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.Request().Context(), p.UserID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AddressHandler) Delete(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), p.UserID, id); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}

func (h *AddressHandler) SetDefault(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SetDefault(c.Request().Context(), p.UserID, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
