package coordination

import (
	"time"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
)

// Coordinator 组合各协调存储，对外提供管理操作
// 各存储以指针共享，调度器与HTTP管理接口使用同一实例
type Coordinator struct {
	Mode       *ServiceMode
	Devices    *SelectedDevices
	Parameters *ParameterSlot
	Activity   *ActivityTracker
	Readings   *DynamicReadings
	Machine    *MachineStateObserver
}

// NewCoordinator 创建全部协调存储
func NewCoordinator(onlineWindow time.Duration) *Coordinator {
	return &Coordinator{
		Mode:       NewServiceMode(),
		Devices:    NewSelectedDevices(),
		Parameters: NewParameterSlot(),
		Activity:   NewActivityTracker(onlineWindow),
		Readings:   NewDynamicReadings(),
		Machine:    NewMachineStateObserver(),
	}
}

// SelectionResult 设备选择的结果
type SelectionResult struct {
	PreviousDeviceID  string `json:"previousDeviceId,omitempty"`
	DeviceID          string `json:"deviceId"`
	DisableScheduled  bool   `json:"disableScheduled"`
	ServiceModeDevice string `json:"serviceModeDevice,omitempty"`
}

// SelectDevice 切换选中设备
// 若另一台设备持有服务模式，向其参数槽写入关闭指令，待其下次ServiceData轮询时取走。
// 新设备不会自动成为服务模式持有者，需显式启用。
func (c *Coordinator) SelectDevice(deviceID string) SelectionResult {
	res := SelectionResult{DeviceID: deviceID}
	if holder, ok := c.Devices.ServiceModeDevice(); ok && holder != deviceID {
		c.scheduleDisable(holder)
		res.DisableScheduled = true
		res.ServiceModeDevice = holder
	}
	res.PreviousDeviceID = c.Devices.Select(deviceID)
	return res
}

// ClearSelection 清除选中设备
func (c *Coordinator) ClearSelection() string {
	return c.Devices.Clear()
}

func (c *Coordinator) scheduleDisable(deviceID string) {
	c.Parameters.Store(deviceID, constants.ParamDummy, constants.DisableServiceModeSentinel)
}

// EnableServiceMode 为当前选中设备启用服务模式
func (c *Coordinator) EnableServiceMode() (string, error) {
	current, ok := c.Devices.Selected()
	if !ok {
		return "", errors.New(errors.ErrNoSelectedDevice, "未选中设备")
	}
	if holder, ok := c.Devices.ServiceModeDevice(); ok && holder != current {
		c.scheduleDisable(holder)
	}
	c.Mode.SetEnabled(true)
	c.Devices.SetServiceModeDevice(current)
	return current, nil
}

// DisableServiceMode 为当前选中设备关闭服务模式并清空动态读数
func (c *Coordinator) DisableServiceMode() (string, error) {
	current, ok := c.Devices.Selected()
	if !ok {
		return "", errors.New(errors.ErrNoSelectedDevice, "未选中设备")
	}
	c.Mode.SetEnabled(false)
	c.Devices.ClearServiceModeDevice(current)
	c.Readings.Clear()
	return current, nil
}

// ToggleServiceMode 不绑定设备地切换全局服务模式
func (c *Coordinator) ToggleServiceMode(enabled bool) ServiceModeSnapshot {
	c.Mode.SetEnabled(enabled)
	return c.Mode.Snapshot()
}

// ActivateReadings 请求设备进入动态读数模式
func (c *Coordinator) ActivateReadings() constants.RequestMode {
	return c.Mode.ActivateReadings()
}

// DeactivateReadings 退出动态读数模式
func (c *Coordinator) DeactivateReadings() constants.RequestMode {
	return c.Mode.DeactivateReadings()
}

// EnqueueParameter 写入待下发参数
func (c *Coordinator) EnqueueParameter(deviceID string, address byte, value string) {
	c.Parameters.Store(deviceID, address, value)
}

// RequestFor 计算回复给指定设备的REQUEST字节
// 仅选中设备获得当前请求值；其它设备得到0x00，并在其持有服务模式时将其移出
func (c *Coordinator) RequestFor(deviceID string) byte {
	if c.Devices.IsSelected(deviceID) {
		return c.Mode.RequestValue()
	}
	c.Devices.ClearServiceModeDevice(deviceID)
	return constants.RequestNormal
}

// StatusView 服务模式状态汇总
type StatusView struct {
	SelectedDevice       string              `json:"selectedDevice"`
	ServiceModeDevice    string              `json:"serviceModeDevice"`
	HasServiceModeDevice bool                `json:"hasServiceModeDevice"`
	ServiceMode          ServiceModeSnapshot `json:"serviceMode"`
}

// Status 返回服务模式状态汇总
func (c *Coordinator) Status() StatusView {
	selected, _ := c.Devices.Selected()
	holder, hasHolder := c.Devices.ServiceModeDevice()
	return StatusView{
		SelectedDevice:       selected,
		ServiceModeDevice:    holder,
		HasServiceModeDevice: hasHolder,
		ServiceMode:          c.Mode.Snapshot(),
	}
}
