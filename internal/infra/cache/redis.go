package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"marketplace/internal/config"
)

// Redis は読み取り専用データのキャッシュ。
// 同じキーの読み込みはsingleflightで1回にまとめる
type Redis struct {
	rdb *redis.Client
	sf  singleflight.Group
	log *zap.Logger
}

func NewRedis(cfg config.Redis, log *zap.Logger) *Redis {
	return &Redis{
		rdb: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		log: log,
	}
}

// 起動時の疎通確認
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	//先にキャッシュを読む。Redisの障害時もDBから返す
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		//書き込めなくても読み込んだ値は返す
		if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Nop はRedis無しの環境用。毎回読み込む
type Nop struct{}

func (Nop) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	return load(ctx)
}

func (Nop) Delete(context.Context, ...string) error { return nil }
