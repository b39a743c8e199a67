package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Read("")
	require.NoError(t, err)
	cfg.HTTPAPIServer.Host = "127.0.0.1"
	cfg.HTTPAPIServer.Port = 0
	return cfg
}

func measureFrame(t *testing.T, deviceID string) []byte {
	t.Helper()
	data := []byte{0x01, 0x00}
	data = append(data, "  1.25"...)
	data = append(data, "  120.5"...)
	data = append(data, "     12345.6"...)
	data = append(data, "2024-05-01 12:00:00"...)

	raw, err := protocol.BuildFrame(protocol.FrameSpec{
		Version:   constants.ProtocolVersion,
		DeviceID:  protocol.PadDeviceID(deviceID),
		CommandID: constants.CmdMeasureData,
		Data:      data,
		Encrypt:   true,
	}, protocol.DefaultKeys())
	require.NoError(t, err)
	return raw
}

func TestNewGateway_MemoryStorage(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewGateway(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := g.Repository.(*storage.MemoryRepository)
	assert.True(t, ok, "默认使用内存存储")
	assert.Nil(t, g.Notifier, "未开启推送时不创建通知器")

	req := httptest.NewRequest(http.MethodPost, constants.CommandsGroup+"/analyze", bytes.NewReader(measureFrame(t, "SCALE01")))
	w := httptest.NewRecorder()
	g.HTTPServer.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.OctetStreamMediaType, w.Header().Get("Content-Type"))

	m, err := g.Repository.LatestMeasurement(context.Background(), "SCALE01")
	require.NoError(t, err)
	assert.Equal(t, "120.5", m.Rate)
	assert.GreaterOrEqual(t, g.Metrics.CommandCount("MEASURE_DATA"), uint64(1))
}

func TestNewGateway_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "sqlite"
	_, err := NewGateway(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewGateway_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = StorageRedis
	cfg.Redis.Address = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 1
	_, err := NewGateway(context.Background(), cfg)
	assert.Error(t, err)
}

func TestGateway_RunAndShutdown(t *testing.T) {
	g, err := NewGateway(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run未在ctx取消后返回")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	assert.NoError(t, g.Shutdown(shutdownCtx))
}
