package coordination

import (
	"sync"
	"time"
)

// PendingParameter 等待下发给设备的一次参数写入
type PendingParameter struct {
	DeviceID string    `json:"deviceId"`
	Address  byte      `json:"address"`
	Value    string    `json:"value"`
	StoredAt time.Time `json:"storedAt"`
}

// ParameterSlot 单槽待下发参数队列
// 新写入覆盖旧值；仅当设备ID匹配时由ServiceData交换取走
type ParameterSlot struct {
	mu      sync.Mutex
	pending *PendingParameter
	now     func() time.Time
}

// NewParameterSlot 创建空槽
func NewParameterSlot() *ParameterSlot {
	return &ParameterSlot{now: time.Now}
}

// Store 写入待下发参数，覆盖已有内容
func (s *ParameterSlot) Store(deviceID string, address byte, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &PendingParameter{
		DeviceID: deviceID,
		Address:  address,
		Value:    value,
		StoredAt: s.now(),
	}
}

// Peek 查看槽内容但不取走
func (s *ParameterSlot) Peek() (PendingParameter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingParameter{}, false
	}
	return *s.pending, true
}

// TakeFor 设备ID匹配时取走并清空槽；不匹配时槽保持不变
func (s *ParameterSlot) TakeFor(deviceID string) (PendingParameter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || s.pending.DeviceID != deviceID {
		return PendingParameter{}, false
	}
	p := *s.pending
	s.pending = nil
	return p, true
}

// Clear 清空槽
func (s *ParameterSlot) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}
