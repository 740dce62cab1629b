package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/middleware"
	"marketplace/internal/validator"
)

// New はミドルウェアとルートを組んだechoを返す
func New(cfg config.Config, log *zap.Logger, sessions middleware.SessionParser, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.Default()

	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(log))
	e.Use(middleware.Recover(log))
	e.Use(middleware.Metrics())
	if len(cfg.HTTP.AllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.HTTP.AllowOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(echomw.BodyLimit(cfg.HTTP.BodyLimit))
	e.Use(middleware.ConcurrencyLimit(cfg.HTTP.MaxConcurrency))
	e.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	e.Use(middleware.Session(sessions, cfg.Session.CookieName))

	RegisterRoutes(e, h)
	return e
}

// Run はctxがキャンセルされるまで待ち、その後graceful shutdownする
func Run(ctx context.Context, e *echo.Echo, cfg config.HTTP, log *zap.Logger) error {
	srv := &http.Server{
		Addr:           cfg.Addr,
		Handler:        e,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}

var _ middleware.SessionParser = (*auth.SessionManager)(nil)
