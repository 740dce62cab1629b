package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type UploadHandler struct {
	uc *usecase.UploadUsecase
}

func NewUploadHandler(uc *usecase.UploadUsecase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

func (h *UploadHandler) RegisterRoutes(api *echo.Group) {
	api.POST("/uploads", h.upload, middleware.RequireAuth())
	api.GET("/uploads/:id", h.serve)
}

// multipartの file フィールドを1つ受け取る
func (h *UploadHandler) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return writeError(c, usecase.NewAppError(http.StatusRequestEntityTooLarge, usecase.CodeFileTooLarge, "file is too large"))
		}
		return writeError(c, usecase.Invalid("file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, usecase.Invalid("file is required"))
	}
	defer f.Close()

	out, err := h.uc.Save(c.Request().Context(), f, fh.Size)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *UploadHandler) serve(c echo.Context) error {
	rc, contentType, err := h.uc.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, rc)
}
