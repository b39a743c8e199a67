package metrics

import (
	"sync"
	"time"
)

// 每个命令保留的处理耗时样本数
const maxProcessingSamples = 256

// GatewayMetrics 协议网关指标
type GatewayMetrics struct {
	mu              sync.RWMutex
	commandCounts   map[string]uint64          // 按命令名计数
	rejectionCounts map[string]uint64          // 按拒绝原因计数
	processingTimes map[string][]time.Duration // 按命令名记录处理耗时
	unimplemented   uint64                     // 未实现命令次数
	lastResetTime   time.Time
	now             func() time.Time
}

// Snapshot 指标快照
type Snapshot struct {
	CommandCounts      map[string]uint64 `json:"commandCounts"`
	RejectionCounts    map[string]uint64 `json:"rejectionCounts"`
	AvgProcessingMicro map[string]int64  `json:"avgProcessingMicros"`
	TotalCommands      uint64            `json:"totalCommands"`
	TotalRejections    uint64            `json:"totalRejections"`
	Unimplemented      uint64            `json:"unimplemented"`
	UptimeSeconds      int64             `json:"uptimeSeconds"`
	LastResetTime      string            `json:"lastResetTime"`
}

// NewGatewayMetrics 创建指标实例
func NewGatewayMetrics() *GatewayMetrics {
	m := &GatewayMetrics{now: time.Now}
	m.resetLocked()
	return m
}

var globalMetrics = NewGatewayMetrics()

// Global 获取全局指标实例
func Global() *GatewayMetrics {
	return globalMetrics
}

func (m *GatewayMetrics) resetLocked() {
	m.commandCounts = make(map[string]uint64)
	m.rejectionCounts = make(map[string]uint64)
	m.processingTimes = make(map[string][]time.Duration)
	m.unimplemented = 0
	m.lastResetTime = m.now()
}

// IncrementCommand 增加命令计数
func (m *GatewayMetrics) IncrementCommand(command string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCounts[command]++
}

// IncrementRejection 增加拒绝计数，reason 通常为错误码名称
func (m *GatewayMetrics) IncrementRejection(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectionCounts[reason]++
}

// IncrementUnimplemented 增加未实现命令计数
func (m *GatewayMetrics) IncrementUnimplemented() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unimplemented++
}

// RecordProcessingTime 记录处理耗时，超过样本上限时丢弃最早的样本
func (m *GatewayMetrics) RecordProcessingTime(command string, d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := append(m.processingTimes[command], d)
	if len(samples) > maxProcessingSamples {
		samples = samples[len(samples)-maxProcessingSamples:]
	}
	m.processingTimes[command] = samples
}

// CommandCount 获取命令计数
func (m *GatewayMetrics) CommandCount(command string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commandCounts[command]
}

// RejectionCount 获取拒绝计数
func (m *GatewayMetrics) RejectionCount(reason string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rejectionCounts[reason]
}

// Snapshot 获取指标快照，返回的map可安全修改
func (m *GatewayMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		CommandCounts:      make(map[string]uint64, len(m.commandCounts)),
		RejectionCounts:    make(map[string]uint64, len(m.rejectionCounts)),
		AvgProcessingMicro: make(map[string]int64, len(m.processingTimes)),
		Unimplemented:      m.unimplemented,
		UptimeSeconds:      int64(m.now().Sub(m.lastResetTime) / time.Second),
		LastResetTime:      m.lastResetTime.Format("2006-01-02 15:04:05"),
	}
	for cmd, n := range m.commandCounts {
		s.CommandCounts[cmd] = n
		s.TotalCommands += n
	}
	for reason, n := range m.rejectionCounts {
		s.RejectionCounts[reason] = n
		s.TotalRejections += n
	}
	for cmd, times := range m.processingTimes {
		if len(times) == 0 {
			continue
		}
		var total time.Duration
		for _, t := range times {
			total += t
		}
		s.AvgProcessingMicro[cmd] = (total / time.Duration(len(times))).Microseconds()
	}
	return s
}

// Reset 重置指标
func (m *GatewayMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}
