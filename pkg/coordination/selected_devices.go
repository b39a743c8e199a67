package coordination

import "sync"

// SelectedDevices 当前选中设备与服务模式设备登记
// 全网同一时刻最多一台设备持有服务模式
type SelectedDevices struct {
	mu                sync.RWMutex
	selected          string
	serviceModeDevice string
}

// NewSelectedDevices 创建空登记
func NewSelectedDevices() *SelectedDevices {
	return &SelectedDevices{}
}

// Select 设置选中设备，返回之前的选中设备
func (s *SelectedDevices) Select(deviceID string) (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.selected
	s.selected = deviceID
	return previous
}

// Clear 清除选中设备
func (s *SelectedDevices) Clear() (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.selected
	s.selected = ""
	return previous
}

// Selected 返回选中设备，未选中时ok为false
func (s *SelectedDevices) Selected() (deviceID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// IsSelected 指定设备是否为当前选中设备
func (s *SelectedDevices) IsSelected(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected != "" && s.selected == deviceID
}

// ServiceModeDevice 返回服务模式持有者
func (s *SelectedDevices) ServiceModeDevice() (deviceID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serviceModeDevice, s.serviceModeDevice != ""
}

// SetServiceModeDevice 指定服务模式持有者
func (s *SelectedDevices) SetServiceModeDevice(deviceID string) {
	s.mu.Lock()
	s.serviceModeDevice = deviceID
	s.mu.Unlock()
}

// ClearServiceModeDevice 仅当deviceID为当前持有者时清除，返回是否清除
func (s *SelectedDevices) ClearServiceModeDevice(deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceModeDevice == "" || s.serviceModeDevice != deviceID {
		return false
	}
	s.serviceModeDevice = ""
	return true
}
