package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
)

type AuthHandler struct {
	uc     *usecase.AuthUsecase
	cookie config.Session
	limit  echo.MiddlewareFunc
}

// limitは登録・ログインにだけ掛ける
func NewAuthHandler(uc *usecase.AuthUsecase, cookie config.Session, limit echo.MiddlewareFunc) *AuthHandler {
	return &AuthHandler{uc: uc, cookie: cookie, limit: limit}
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register", h.register, h.limit)
	g.POST("/login", h.login, h.limit)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, middleware.RequireAuth())

	p := api.Group("/profile", middleware.RequireAuth())
	p.PUT("", h.updateProfile)
	p.PUT("/password", h.changePassword)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.RegisterInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	user, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, user)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.LoginInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	//トークンはbodyに出さずcookieだけに載せる
	c.SetCookie(h.sessionCookie(out.Token, out.ExpiresAt))
	return ok(c, out.User)
}

// ログインしていなくても成功扱い
func (h *AuthHandler) logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return ok(c, nil)
}

func (h *AuthHandler) me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.uc.Me(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, user)
}

func (h *AuthHandler) updateProfile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.ProfileInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	user, err := h.uc.UpdateProfile(c.Request().Context(), p, req)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, user)
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req usecase.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.ChangePassword(c.Request().Context(), p, req); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if value == "" {
		ck.MaxAge = -1
	} else {
		ck.MaxAge = int(time.Until(expires).Seconds())
	}
	return ck
}
