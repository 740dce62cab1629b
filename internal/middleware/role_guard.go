package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func errorJSON(code, msg string) errorResponse {
	return errorResponse{Success: false, Error: msg, Code: code}
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthenticated", "please log in"))
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, errorJSON("forbidden", "no permission"))
}

// ログイン済みかだけを確認
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !PrincipalFrom(c).Authenticated() {
				return unauthenticated(c)
			}
			return next(c)
		}
	}
}

// 購入者だけ許可
func RequireBuyer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if !p.Authenticated() {
				return unauthenticated(c)
			}
			if _, ok := p.Buyer(); !ok {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

// 出品者だけ許可
func RequireSeller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if !p.Authenticated() {
				return unauthenticated(c)
			}
			if _, ok := p.Seller(); !ok {
				return forbidden(c)
			}
			return next(c)
		}
	}
}
