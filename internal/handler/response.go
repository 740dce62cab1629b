package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

// 全APIで共通のレスポンス形
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// AppError以外はすべて500として扱い、原因はログにだけ出す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ae, isApp := usecase.AsAppError(err)
	if !isApp {
		ae = usecase.Internal("handler", err).(*usecase.AppError)
	}
	if ae.Status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c, zap.L()).Error("request failed",
			zap.String("code", ae.Code),
			zap.Error(ae.Err),
		)
	}
	return c.JSON(ae.Status, envelope{Success: false, Error: ae.Message, Code: ae.Code})
}

// JSONとして読めないbodyは入力エラー
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return usecase.NewAppError(http.StatusRequestEntityTooLarge, usecase.CodeFileTooLarge, "request body too large")
		}
		return usecase.Invalid("invalid request body")
	}
	return nil
}

// 数値でないIDは存在しない扱い
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NotFound()
	}
	return id, nil
}

func currentPrincipal(c echo.Context) (auth.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if !p.Authenticated() {
		return auth.Principal{}, usecase.Unauthenticated()
	}
	return p, nil
}

func currentBuyer(c echo.Context) (auth.Buyer, error) {
	p, err := currentPrincipal(c)
	if err != nil {
		return auth.Buyer{}, err
	}
	b, isBuyer := p.Buyer()
	if !isBuyer {
		return auth.Buyer{}, usecase.Forbidden()
	}
	return b, nil
}

func currentSeller(c echo.Context) (auth.Seller, error) {
	p, err := currentPrincipal(c)
	if err != nil {
		return auth.Seller{}, err
	}
	s, isSeller := p.Seller()
	if !isSeller {
		return auth.Seller{}, usecase.Forbidden()
	}
	return s, nil
}
