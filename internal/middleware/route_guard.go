package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
)

// RouteGuard は画面のパスに対してロールごとのリダイレクトを行う。
// /api 配下には付けない
func RouteGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}
			if to, ok := PageRedirect(PrincipalFrom(c), req.URL); ok {
				return c.Redirect(http.StatusFound, to)
			}
			return next(c)
		}
	}
}

// PageRedirect はリダイレクト先を返す。そのまま表示するならfalse
func PageRedirect(p auth.Principal, u *url.URL) (string, bool) {
	path := u.Path
	if path == "" {
		path = "/"
	}

	if !p.Authenticated() {
		if needsLogin(path) {
			next := path
			if u.RawQuery != "" {
				next += "?" + u.RawQuery
			}
			return "/login?next=" + url.QueryEscape(next), true
		}
		return "", false
	}

	if path == "/login" || path == "/register" {
		return p.Home(), true
	}
	switch p.Role {
	case model.RoleSeller:
		if buyerPage(path) {
			return p.Home(), true
		}
	case model.RoleBuyer:
		if under(path, "/seller") {
			return p.Home(), true
		}
	}
	return "", false
}

func needsLogin(path string) bool {
	return under(path, "/seller") ||
		under(path, "/orders") ||
		path == "/cart" ||
		path == "/addresses" ||
		path == "/profile"
}

func buyerPage(path string) bool {
	return path == "/" ||
		path == "/cart" ||
		under(path, "/products") ||
		under(path, "/orders")
}

// prefix自身とその配下
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
