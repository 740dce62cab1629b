package usecase

import (
	"context"
	"io"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
)

// 読み取りキャッシュ。Redisが無い環境では素通しの実装を使う
type ReadCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// 注文ステータス変更の通知先
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt model.OrderEvent) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) (bool, error)
}

type SessionIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}

// アップロードファイルの保存先（ローカル / S3）
// 存在しないキーは fs.ErrNotExist を返す
type FileStorage interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
