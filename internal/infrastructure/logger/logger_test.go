package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(&config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestInit_JSONToBuffer(t *testing.T) {
	require.NoError(t, Init(&config.LoggerConfig{Level: "debug", Format: "json"}))

	var buf bytes.Buffer
	SetOutput(&buf)
	WithField("device_id", "DEV1").Info("测试消息")

	assert.Contains(t, buf.String(), `"device_id":"DEV1"`)
	assert.Contains(t, buf.String(), "测试消息")
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gateway.log")
	err := Init(&config.LoggerConfig{Level: "info", Format: "text", FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))
}

func TestCommLogger_Frame(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	comm := NewCommLoggerWithCore(core)

	comm.Frame(DirectionIngress, "DEV1", 0x0003, []byte{0xAA, 0x55})
	comm.Rejected("bad crc", []byte{0x01})

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ingress", fields["direction"])
	assert.Equal(t, "0x0003", fields["command"])
	assert.Equal(t, "aa55", fields["hex"])
	assert.Equal(t, "bad crc", entries[1].ContextMap()["reason"])
}

func TestCommLogger_DisabledIsNop(t *testing.T) {
	comm, err := NewCommLogger(&config.LoggerConfig{LogHexDump: false})
	require.NoError(t, err)
	comm.Frame(DirectionEgress, "DEV1", 0x8003, []byte{0x01})

	var nilLogger *CommLogger
	nilLogger.Frame(DirectionEgress, "DEV1", 0x8003, nil)
	assert.NoError(t, nilLogger.Sync())
}
