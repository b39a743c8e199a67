package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGatewayMetrics_Snapshot(t *testing.T) {
	m := NewGatewayMetrics()
	m.IncrementCommand("MEASURE_DATA")
	m.IncrementCommand("MEASURE_DATA")
	m.IncrementCommand("SERVICE_DATA")
	m.IncrementRejection("frame_malformed")
	m.IncrementUnimplemented()
	m.RecordProcessingTime("MEASURE_DATA", 100*time.Microsecond)
	m.RecordProcessingTime("MEASURE_DATA", 300*time.Microsecond)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.CommandCounts["MEASURE_DATA"])
	assert.Equal(t, uint64(3), s.TotalCommands)
	assert.Equal(t, uint64(1), s.TotalRejections)
	assert.Equal(t, uint64(1), s.Unimplemented)
	assert.Equal(t, int64(200), s.AvgProcessingMicro["MEASURE_DATA"])

	// 快照与内部状态隔离
	s.CommandCounts["MEASURE_DATA"] = 99
	assert.Equal(t, uint64(2), m.CommandCount("MEASURE_DATA"))
}

func TestGatewayMetrics_SampleLimit(t *testing.T) {
	m := NewGatewayMetrics()
	for i := 0; i < maxProcessingSamples+10; i++ {
		m.RecordProcessingTime("CMD_1", time.Millisecond)
	}
	assert.Len(t, m.processingTimes["CMD_1"], maxProcessingSamples)
}

func TestGatewayMetrics_ResetAndNil(t *testing.T) {
	m := NewGatewayMetrics()
	m.IncrementRejection("checksum_invalid")
	m.Reset()
	assert.Equal(t, uint64(0), m.RejectionCount("checksum_invalid"))

	var nilMetrics *GatewayMetrics
	nilMetrics.IncrementCommand("x")
	nilMetrics.IncrementRejection("x")
	nilMetrics.RecordProcessingTime("x", time.Second)
	nilMetrics.IncrementUnimplemented()
}
