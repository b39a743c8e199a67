package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository 连接 TEST_REDIS_ADDR 指定的Redis，未设置时跳过
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置 TEST_REDIS_ADDR，跳过Redis集成测试")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Address: addr, DialTimeout: 2, ReadTimeout: 2, WriteTimeout: 2})
	require.NoError(t, err)

	prefix := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = Close(client)
	})
	return NewRepository(client, prefix)
}

func TestRepository_KeyLayout(t *testing.T) {
	r := NewRepository(nil, "integrator:")
	assert.Equal(t, "integrator:measurements:DEV1", r.measurementsKey("DEV1"))
	assert.Equal(t, "integrator:alias:DEV1", r.aliasKey("DEV1"))
	assert.Equal(t, "integrator:aliases", r.aliasSetKey())
	assert.Equal(t, "integrator:static:DEV1", r.staticKey("DEV1"))
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Address: "127.0.0.1:1", DialTimeout: 1})
	require.Error(t, err)
	assert.True(t, errors.IsErrCode(err, errors.ErrRedisConnectionFailed))
}

func TestRepository_Measurements(t *testing.T) {
	repo := newTestRepository(t)
	repo.history = 3
	ctx := context.Background()

	_, err := repo.LatestMeasurement(ctx, "DEV1")
	assert.True(t, errors.IsErrCode(err, errors.ErrDeviceNotFound))

	for _, total := range []string{"1", "2", "3", "4"} {
		require.NoError(t, repo.SaveMeasurement(ctx, storage.Measurement{DeviceID: "DEV1", Total: total}))
	}

	m, err := repo.LatestMeasurement(ctx, "DEV1")
	require.NoError(t, err)
	assert.Equal(t, "4", m.Total)
	assert.NotEmpty(t, m.ID)
	assert.WithinDuration(t, time.Now(), m.ReceivedAt, time.Minute)

	n, err := repo.client.LLen(ctx, repo.measurementsKey("DEV1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRepository_AliasesAndStatic(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAlias(ctx, storage.Alias{DeviceID: "B", Company: "X"}))
	require.NoError(t, repo.UpsertAlias(ctx, storage.Alias{DeviceID: "A", Company: "Y"}))
	require.NoError(t, repo.UpsertAlias(ctx, storage.Alias{DeviceID: "A", Company: "Z"}))

	list, err := repo.ListAliases(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].DeviceID)
	assert.Equal(t, "Z", list[0].Company)

	params := integrator_protocol.StaticParams{ScaleCapacity: "1200.0", CurrentTime: "2024-05-01 12:00:00"}
	require.NoError(t, repo.UpsertStaticParams(ctx, "A", params))
	rec, err := repo.LatestStaticParams(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, params, rec.Params)
}
