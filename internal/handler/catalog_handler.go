package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
)

// 商品閲覧の公開API
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

func (h *CatalogHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/home", h.home)
	api.GET("/categories", h.categories)
	api.GET("/products", h.list)
	api.GET("/products/:id", h.detail)
}

func (h *CatalogHandler) home(c echo.Context) error {
	out, err := h.uc.Home(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CatalogHandler) categories(c echo.Context) error {
	out, err := h.uc.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// ?category= があればカテゴリ、無ければ ?q= で検索
func (h *CatalogHandler) list(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		out []usecase.ProductCard
		err error
	)
	if cat := c.QueryParam("category"); cat != "" {
		out, err = h.uc.ByCategory(ctx, cat)
	} else {
		out, err = h.uc.Search(ctx, c.QueryParam("q"))
	}
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CatalogHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
