package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

// 一覧は公開、投稿は購入者のみ
func (h *ReviewHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/products/:id/reviews", h.list)
	api.POST("/products/:id/reviews", h.create, middleware.RequireBuyer())
	api.GET("/products/:id/reviews/eligibility", h.eligibility, middleware.RequireBuyer())
}

func (h *ReviewHandler) list(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListByProduct(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ReviewHandler) create(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.ReviewInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), buyer, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *ReviewHandler) eligibility(c echo.Context) error {
	buyer, err := currentBuyer(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Eligibility(c.Request().Context(), buyer, id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
