package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// panicはスタックつきでログに出し、500で返す
func Recover(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				LoggerFrom(c, l).Error("panic recovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.Stack("stack"),
				)
				err = c.JSON(http.StatusInternalServerError, errorJSON("internal", "please try again later"))
			}()
			return next(c)
		}
	}
}
