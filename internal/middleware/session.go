package middleware

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/auth"
)

const ctxPrincipalKey = "principal" // auth.Principal

type SessionParser interface {
	Parse(token string) (auth.Principal, error)
}

// Session はcookieのセッションを読んでPrincipalをcontextに入れる。
// 無い・壊れている場合は未ログインのまま通す
func Session(parser SessionParser, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(cookieName)
			if err == nil && ck.Value != "" {
				if p, err := parser.Parse(ck.Value); err == nil {
					c.Set(ctxPrincipalKey, p)
				}
			}
			return next(c)
		}
	}
}

// PrincipalFrom は未ログインならゼロ値を返す
func PrincipalFrom(c echo.Context) auth.Principal {
	p, _ := c.Get(ctxPrincipalKey).(auth.Principal)
	return p
}
