package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"

	ctxRequestIDKey = "request_id" // string
	ctxLoggerKey    = "logger"     // *zap.Logger
)

func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" || len(rid) > 64 {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)
			c.Set(ctxRequestIDKey, rid)
			return next(c)
		}
	}
}

// AccessLog はリクエストIDつきのloggerをcontextに入れ、終了時に1行出す
func AccessLog(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get(ctxRequestIDKey).(string)
			reqLog := l.With(zap.String("rid", rid))
			c.Set(ctxLoggerKey, reqLog)

			err := next(c)
			if err != nil {
				//echoのエラーハンドラでステータスを確定させる
				c.Error(err)
			}

			req := c.Request()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.Int64("size", c.Response().Size),
			}
			if p := PrincipalFrom(c); p.Authenticated() {
				fields = append(fields, zap.Int64("user_id", p.UserID))
			}
			reqLog.Info("HTTP", fields...)
			return nil
		}
	}
}

// LoggerFrom はAccessLogが入れたloggerを返す。無ければfallback
func LoggerFrom(c echo.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(ctxLoggerKey).(*zap.Logger); ok {
		return l
	}
	return fallback
}
