package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

// PageHandler はフロントエンドの画面を返す。
// 実在するファイル（js/css等）はそのまま、それ以外はindex.html
type PageHandler struct {
	dir string
}

func NewPageHandler(dir string) *PageHandler {
	return &PageHandler{dir: dir}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/*", h.page, middleware.RouteGuard())
}

func (h *PageHandler) page(c echo.Context) error {
	//未定義のAPIは画面を返さない
	if p := c.Request().URL.Path; p == "/api" || strings.HasPrefix(p, "/api/") {
		return writeError(c, usecase.NotFound())
	}
	rel := strings.TrimPrefix(filepath.Clean("/"+c.Request().URL.Path), "/")
	if rel != "" {
		full := filepath.Join(h.dir, rel)
		if st, err := os.Stat(full); err == nil && !st.IsDir() {
			return c.File(full)
		}
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return c.String(http.StatusNotFound, "not found")
	}
	return c.File(index)
}
