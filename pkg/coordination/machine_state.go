package coordination

import (
	"sync"

	"github.com/massensors/py-server3/pkg/constants"
)

// MachineState 根据通信流量观察到的设备工作状态
type MachineState string

const (
	StateServiceMode               MachineState = "SERVICE_MODE"
	StateServiceModeRequestDynamic MachineState = "SERVICE_MODE_REQUEST_DYNAMIC"
	StateDynamicMode               MachineState = "DYNAMIC_MODE"
	StateServiceModeRequestNormal  MachineState = "SERVICE_MODE_REQUEST_NORMAL"
	StateNormalMode                MachineState = "NORMAL_MODE"
	StateNormalModeRequestService  MachineState = "NORMAL_MODE_REQUEST_SERVICE"
	StateUnknown                   MachineState = "UNKNOWN_STATE"
)

// StateVariables 六个观察变量
// *Request 来自最近一次下发的REQUEST值，*Active 来自最近一次上行命令ID
type StateVariables struct {
	ServiceModeRequest bool `json:"service_mode_request"`
	ServiceModeActive  bool `json:"service_mode_active"`
	DynamicModeRequest bool `json:"dynamic_mode_request"`
	DynamicModeActive  bool `json:"dynamic_mode_active"`
	NormalModeRequest  bool `json:"normal_mode_request"`
	NormalModeActive   bool `json:"normal_mode_active"`
}

// StateDefinition 状态表中的一行
type StateDefinition struct {
	State     MachineState   `json:"state"`
	Variables StateVariables `json:"variables"`
}

var stateTable = []StateDefinition{
	{StateServiceMode, StateVariables{ServiceModeRequest: true, ServiceModeActive: true}},
	{StateServiceModeRequestDynamic, StateVariables{ServiceModeActive: true, DynamicModeRequest: true}},
	{StateDynamicMode, StateVariables{DynamicModeRequest: true, DynamicModeActive: true}},
	{StateServiceModeRequestNormal, StateVariables{ServiceModeActive: true, NormalModeRequest: true}},
	{StateNormalMode, StateVariables{NormalModeRequest: true, NormalModeActive: true}},
	{StateNormalModeRequestService, StateVariables{ServiceModeRequest: true, NormalModeActive: true}},
}

// StateDefinitions 返回状态表副本
func StateDefinitions() []StateDefinition {
	return append([]StateDefinition(nil), stateTable...)
}

// classify 查表，无匹配行返回UNKNOWN
func classify(v StateVariables) MachineState {
	for _, def := range stateTable {
		if def.Variables == v {
			return def.State
		}
	}
	return StateUnknown
}

// MachineStateInfo 观察器完整信息
type MachineStateInfo struct {
	State            MachineState   `json:"state"`
	Variables        StateVariables `json:"variables"`
	LastRequestValue *byte          `json:"lastRequestValue"`
	LastCommandID    *uint16        `json:"lastCommandId"`
}

// MachineStateChangeCallback 观察状态变化回调
type MachineStateChangeCallback func(prev, cur MachineState)

// MachineStateObserver 只读的机器状态观察器，不参与调度决策
type MachineStateObserver struct {
	mu          sync.RWMutex
	vars        StateVariables
	lastRequest *byte
	lastCommand *uint16
	callbacks   []MachineStateChangeCallback
}

// NewMachineStateObserver 创建观察器，初始全部变量为false
func NewMachineStateObserver() *MachineStateObserver {
	return &MachineStateObserver{}
}

// OnChange 注册状态变化回调
func (o *MachineStateObserver) OnChange(cb MachineStateChangeCallback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks = append(o.callbacks, cb)
}

// Observe 记录一次交换：上行命令ID与下发的REQUEST值
// 只有观察值发生变化时才更新对应的变量组
func (o *MachineStateObserver) Observe(commandID uint16, request byte) {
	o.mu.Lock()
	prev := classify(o.vars)

	if o.lastRequest == nil || *o.lastRequest != request {
		r := request
		o.lastRequest = &r
		o.vars.ServiceModeRequest = request == constants.RequestService
		o.vars.DynamicModeRequest = request == constants.RequestReadings
		o.vars.NormalModeRequest = request == constants.RequestNormal
	}

	if o.lastCommand == nil || *o.lastCommand != commandID {
		c := commandID
		o.lastCommand = &c
		o.vars.ServiceModeActive = commandID == constants.CmdServiceData
		o.vars.DynamicModeActive = commandID == constants.CmdCaptureDynamic
		o.vars.NormalModeActive = commandID == constants.CmdMeasureData
	}

	cur := classify(o.vars)
	callbacks := append([]MachineStateChangeCallback(nil), o.callbacks...)
	o.mu.Unlock()

	if prev == cur {
		return
	}
	for _, cb := range callbacks {
		cb(prev, cur)
	}
}

// State 当前观察到的状态
func (o *MachineStateObserver) State() MachineState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return classify(o.vars)
}

// Variables 当前变量
func (o *MachineStateObserver) Variables() StateVariables {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.vars
}

// Info 返回状态、变量与最近观察值
func (o *MachineStateObserver) Info() MachineStateInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()
	info := MachineStateInfo{State: classify(o.vars), Variables: o.vars}
	if o.lastRequest != nil {
		r := *o.lastRequest
		info.LastRequestValue = &r
	}
	if o.lastCommand != nil {
		c := *o.lastCommand
		info.LastCommandID = &c
	}
	return info
}

// Reset 清空观察结果
func (o *MachineStateObserver) Reset() {
	o.mu.Lock()
	o.vars = StateVariables{}
	o.lastRequest = nil
	o.lastCommand = nil
	o.mu.Unlock()
}
