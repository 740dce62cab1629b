package usecase_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain/model"
	"marketplace/internal/usecase"
)

// 発行されたイベントを記録するだけ
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, evt model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) recorded() []model.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.OrderEvent(nil), p.events...)
}

// AppErrorのステータスとコードを確認する
func requireAppError(t *testing.T, err error, status int, code string) *usecase.AppError {
	t.Helper()
	require.Error(t, err)
	ae, ok := usecase.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, status, ae.Status, ae.Error())
	assert.Equal(t, code, ae.Code, ae.Error())
	return ae
}

func requireNotFound(t *testing.T, err error) {
	t.Helper()
	requireAppError(t, err, http.StatusNotFound, usecase.CodeNotFound)
}

// メモリ上のReadCache。ロード回数と削除キーを数える
type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	loads   int
	deleted []string
	delErr  error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if b, ok := c.data[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.loads++
	c.mu.Unlock()

	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return b, nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	if c.delErr != nil {
		return c.delErr
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
