package main

import (
	"context"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/infra/cache"
	"marketplace/internal/infra/db"
	"marketplace/internal/infra/event"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/infra/storage"
	"marketplace/internal/middleware"
	"marketplace/internal/server"
	"marketplace/internal/usecase"
)

type app struct {
	echo    *echo.Echo
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// 組み立て途中で失敗したら、開いた分を閉じてからエラーを返す
func (a *app) abort(err error) (*app, error) {
	a.Close()
	a.closers = nil
	return nil, err
}

// Redisに繋がらなければ起動は続け、キャッシュ無しで動かす
func newReadCache(ctx context.Context, cfg config.Redis, log *zap.Logger) (usecase.ReadCache, io.Closer) {
	if cfg.Addr == "" {
		return cache.Nop{}, nil
	}
	rc := cache.NewRedis(cfg, log)
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis unavailable, cache disabled", zap.Error(err))
		_ = rc.Close()
		return cache.Nop{}, nil
	}
	return rc, rc
}

// 依存を組み立てる
func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{}

	//DB接続
	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return a.abort(fmt.Errorf("automigrate: %w", err))
		}
		log.Info("automigrate done")
	}

	//Repository（GORM実装）
	users := infraRepo.NewUserGormRepository(gdb)
	products := infraRepo.NewProductGormRepository(gdb)
	inventory := infraRepo.NewInventoryGormRepository(gdb)
	cartItems := infraRepo.NewCartItemGormRepository(gdb)
	addresses := infraRepo.NewAddressGormRepository(gdb)
	orders := infraRepo.NewOrderGormRepository(gdb)
	reviews := infraRepo.NewReviewGormRepository(gdb)
	audits := infraRepo.NewAuditLogGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	//キャッシュ（Redis未設定・疎通なしなら素通し）
	readCache, rc := newReadCache(ctx, cfg.Redis, log)
	if rc != nil {
		a.closers = append(a.closers, rc)
	}

	//注文イベント（Kafka未設定なら送らない）
	var events usecase.OrderEventPublisher = event.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := event.NewKafka(cfg.Kafka, log)
		if err != nil {
			return a.abort(fmt.Errorf("kafka: %w", err))
		}
		events = k
		a.closers = append(a.closers, k)
	}

	//アップロード保存先
	var files usecase.FileStorage
	switch cfg.Storage.Driver {
	case "s3":
		s, err := storage.NewS3(cfg.Storage.S3Region, cfg.Storage.S3Bucket)
		if err != nil {
			return a.abort(fmt.Errorf("s3: %w", err))
		}
		files = s
	default:
		s, err := storage.NewLocal(cfg.Storage.LocalDir)
		if err != nil {
			return a.abort(err)
		}
		files = s
	}

	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	//Usecase
	authUC := usecase.NewAuthUsecase(users, hasher, sessions)
	catalogUC := usecase.NewCatalogUsecase(products, users, reviews, readCache, cfg.Redis.TTL)
	cartUC := usecase.NewCartUsecase(cartItems, products)
	orderUC := usecase.NewOrderUsecase(txm, orders, products, cartItems, addresses, events, log,
		usecase.OrderOptions{RestockOnCancel: cfg.Order.RestockOnCancel})
	sellerOrderUC := usecase.NewSellerOrderUsecase(txm, orders, products, addresses, events, log)
	productUC := usecase.NewProductUsecase(txm, products, inventory, orders, audits, readCache, log)
	addressUC := usecase.NewAddressUsecase(txm, addresses, orders)
	reviewUC := usecase.NewReviewUsecase(reviews, orders, products, users)
	uploadUC := usecase.NewUploadUsecase(files, cfg.Upload.MaxBytes)

	//Handler
	authLimit := middleware.RateLimitPerIP(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	h := server.Handlers{
		Auth:    handler.NewAuthHandler(authUC, cfg.Session, authLimit),
		Catalog: handler.NewCatalogHandler(catalogUC),
		Cart:    handler.NewCartHandler(cartUC),
		Order:   handler.NewOrderHandler(orderUC),
		Address: handler.NewAddressHandler(addressUC),
		Review:  handler.NewReviewHandler(reviewUC),
		Seller:  handler.NewSellerHandler(productUC, sellerOrderUC),
		Upload:  handler.NewUploadHandler(uploadUC),
		Page:    handler.NewPageHandler(cfg.Web.Dir),
	}

	a.echo = server.New(cfg, log, sessions, h)
	return a, nil
}
