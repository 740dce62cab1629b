package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketplace/internal/config"
)

func TestRedis_UnreachableStillLoadsAndLogsSetFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	//何も待ち受けていないポート
	rc := NewRedis(config.Redis{Addr: "127.0.0.1:1"}, zap.New(core))
	t.Cleanup(func() { _ = rc.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := rc.GetOrLoad(ctx, "catalog:home", time.Minute, func(context.Context) ([]byte, error) {
		return []byte(`["mug"]`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, `["mug"]`, string(b))

	entries := logs.FilterMessage("cache set failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "catalog:home", entries[0].ContextMap()["key"])
}
