package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/metrics"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 45, 0, time.Local)

// 测试环境使用同一组密钥
var testCodec = protocol.NewCodec(protocol.DefaultKeys())

type testEnv struct {
	dispatcher *CommandDispatcher
	coord      *coordination.Coordinator
	repo       *storage.MemoryRepository
	metrics    *metrics.GatewayMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	coord := coordination.NewCoordinator(2 * time.Minute)
	repo := storage.NewMemoryRepository()
	m := metrics.NewGatewayMetrics()
	d := NewCommandDispatcher(coord, repo, testCodec).
		WithMetrics(m).
		WithClock(func() time.Time { return fixedNow })
	return &testEnv{dispatcher: d, coord: coord, repo: repo, metrics: m}
}

// field 右对齐填充到固定宽度
func field(s string, n int) string {
	return fmt.Sprintf("%*s", n, s)
}

func measurePayload(status byte) []byte {
	p := []byte{status, 0x00}
	p = append(p, field("1.25", 6)...)
	p = append(p, field("120.5", 7)...)
	p = append(p, field("12345.6", 12)...)
	p = append(p, "2024-05-01 12:00:00"...)
	return p
}

func aliasPayload() []byte {
	p := []byte{0x01, 0x00}
	p = append(p, field("ACME", 10)...)
	p = append(p, field("Plant 1", 10)...)
	p = append(p, field("Belt", 10)...)
	p = append(p, field("S-01", 10)...)
	return p
}

func dynamicPayload() []byte {
	p := []byte{0x01, 0x00}
	p = append(p, field("12.5", 8)...)
	p = append(p, field("32000", 8)...)
	p = append(p, field("100.2", 8)...)
	p = append(p, field("55.1", 8)...)
	p = append(p, "2024-05-01 12:00:01"...)
	return p
}

func staticPayload() []byte {
	p := []byte{0x01, 0x00}
	p = append(p, "3"...)
	p = append(p, field("1200.0", 8)...)
	p = append(p, field("0.5", 8)...)
	p = append(p, field("0.1", 8)...)
	p = append(p, "1"...)
	p = append(p, "2"...)
	p = append(p, field("500.0", 8)...)
	p = append(p, field("1.0", 8)...)
	p = append(p, field("1.2", 8)...)
	p = append(p, "0"...)
	p = append(p, field("0.3", 8)...)
	p = append(p, field("360", 7)...)
	p = append(p, field("100.0", 8)...)
	p = append(p, field("36000", 8)...)
	p = append(p, "2024-05-01 12:00:02"...)
	return p
}

func buildFrame(t *testing.T, deviceID string, cmd uint16, data []byte, encrypt bool) []byte {
	t.Helper()
	raw, err := testCodec.BuildFrame(protocol.FrameSpec{
		Version:   0x01,
		DeviceID:  protocol.PadDeviceID(deviceID),
		CommandID: cmd,
		KeyID:     0x01,
		Seq:       0x07,
		Data:      data,
		Encrypt:   encrypt,
	})
	require.NoError(t, err)
	return raw
}

func decodeReply(t *testing.T, reply []byte) *protocol.Frame {
	t.Helper()
	require.True(t, protocol.ValidateFrame(reply), "回复帧CRC16应有效")
	frame, crcOK, err := testCodec.Decode(reply)
	require.NoError(t, err)
	require.True(t, crcOK, "回复帧CRC8应有效")
	return frame
}

// requestOf 回复DATA中的REQUEST字节
func requestOf(t *testing.T, reply []byte) byte {
	t.Helper()
	return decodeReply(t, reply).Data()[1]
}

func padded(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
