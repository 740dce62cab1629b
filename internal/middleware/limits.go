package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// 同時に処理するリクエスト数を制限（DBを守る）
func ConcurrencyLimit(max int64) echo.MiddlewareFunc {
	sem := semaphore.NewWeighted(max)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := sem.Acquire(c.Request().Context(), 1); err != nil {
				return c.JSON(http.StatusServiceUnavailable, errorJSON("busy", "server busy"))
			}
			defer sem.Release(1)
			return next(c)
		}
	}
}

// RateLimitPerIP はIPごとのトークンバケット。しばらく来ないIPは捨てる
func RateLimitPerIP(rps rate.Limit, burst int) echo.MiddlewareFunc {
	type entry struct {
		lim  *rate.Limiter
		seen time.Time
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*entry)
		swept   = time.Now()
	)
	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		if now.Sub(swept) > time.Minute {
			for k, e := range buckets {
				if now.Sub(e.seen) > 10*time.Minute {
					delete(buckets, k)
				}
			}
			swept = now
		}
		e, ok := buckets[ip]
		if !ok {
			e = &entry{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = e
		}
		e.seen = now
		return e.lim.Allow()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, errorJSON("rate_limited", "too many requests"))
			}
			return next(c)
		}
	}
}

func Timeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return c.JSON(http.StatusGatewayTimeout, errorJSON("timeout", "request timed out"))
			}
			return err
		}
	}
}
