// Package coordination 保存跨请求共享的模式与设备协调状态
//
// 所有状态在进程启动时创建，生命周期内原地修改，重启即重置。
// 每个存储各自持有锁，跨存储只保证最终一致。
package coordination

import (
	"sync"

	"github.com/massensors/py-server3/pkg/constants"
)

// ServiceModeSnapshot 服务模式状态快照
type ServiceModeSnapshot struct {
	Enabled        bool                     `json:"enabled"`
	Active         bool                     `json:"active"`
	RequestMode    constants.RequestMode    `json:"requestMode"`
	RequestValue   byte                     `json:"requestValue"`
	ConveyorStatus constants.ConveyorStatus `json:"conveyorStatus"`
	StatusMessage  string                   `json:"statusMessage"`
}

// ServiceModeChangeCallback 服务模式变更回调
type ServiceModeChangeCallback func(prev, cur ServiceModeSnapshot)

// ServiceMode 全局唯一的服务模式状态
// 不变式: RequestMode=readings 时 Enabled 必为 true
type ServiceMode struct {
	mu             sync.RWMutex
	enabled        bool
	active         bool
	requestMode    constants.RequestMode
	conveyorStatus constants.ConveyorStatus
	statusMessage  string

	callbacks []ServiceModeChangeCallback
}

// NewServiceMode 创建默认状态：未启用、正常模式、输送带状态未知
func NewServiceMode() *ServiceMode {
	return &ServiceMode{
		requestMode:    constants.RequestModeNormal,
		conveyorStatus: constants.ConveyorUnknown,
		statusMessage:  "未知状态",
	}
}

// OnChange 注册启用状态或请求模式变化的回调
func (s *ServiceMode) OnChange(cb ServiceModeChangeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// SetEnabled 启用时进入service，关闭时回到normal
func (s *ServiceMode) SetEnabled(enabled bool) {
	s.mutate(func() {
		s.enabled = enabled
		if enabled {
			s.requestMode = constants.RequestModeService
		} else {
			s.requestMode = constants.RequestModeNormal
		}
	})
}

// ActivateReadings 仅在已启用时进入readings，否则回到normal
func (s *ServiceMode) ActivateReadings() constants.RequestMode {
	var mode constants.RequestMode
	s.mutate(func() {
		if s.enabled {
			s.requestMode = constants.RequestModeReadings
		} else {
			s.requestMode = constants.RequestModeNormal
		}
		mode = s.requestMode
	})
	return mode
}

// DeactivateReadings 已启用时回到service，否则normal
func (s *ServiceMode) DeactivateReadings() constants.RequestMode {
	var mode constants.RequestMode
	s.mutate(func() {
		if s.enabled {
			s.requestMode = constants.RequestModeService
		} else {
			s.requestMode = constants.RequestModeNormal
		}
		mode = s.requestMode
	})
	return mode
}

// RequestValue 根据(enabled, requestMode)计算回复中的REQUEST字节
func (s *ServiceMode) RequestValue() byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requestValueLocked()
}

func (s *ServiceMode) requestValueLocked() byte {
	if !s.enabled {
		return constants.RequestNormal
	}
	if s.requestMode == constants.RequestModeReadings {
		return constants.RequestReadings
	}
	return constants.RequestService
}

// IsEnabled 是否已启用服务模式
func (s *ServiceMode) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetActive 记录设备上报的服务模式是否生效
func (s *ServiceMode) SetActive(active bool) {
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// SetConveyorStatus 更新输送带状态与展示文本
func (s *ServiceMode) SetConveyorStatus(status constants.ConveyorStatus, message string) {
	s.mu.Lock()
	s.conveyorStatus = status
	s.statusMessage = message
	s.mu.Unlock()
}

// Snapshot 返回当前状态
func (s *ServiceMode) Snapshot() ServiceModeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ServiceMode) snapshotLocked() ServiceModeSnapshot {
	return ServiceModeSnapshot{
		Enabled:        s.enabled,
		Active:         s.active,
		RequestMode:    s.requestMode,
		RequestValue:   s.requestValueLocked(),
		ConveyorStatus: s.conveyorStatus,
		StatusMessage:  s.statusMessage,
	}
}

// mutate 在锁内修改状态，锁外触发回调
func (s *ServiceMode) mutate(fn func()) {
	s.mu.Lock()
	old := s.snapshotLocked()
	fn()
	cur := s.snapshotLocked()
	callbacks := append([]ServiceModeChangeCallback(nil), s.callbacks...)
	s.mu.Unlock()

	if old.Enabled == cur.Enabled && old.RequestMode == cur.RequestMode {
		return
	}
	for _, cb := range callbacks {
		cb(old, cur)
	}
}
