package http

import (
	"time"

	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/metrics"
	"github.com/massensors/py-server3/pkg/notification"
	"github.com/massensors/py-server3/pkg/storage"
)

// APIResponse API统一响应结构
type APIResponse struct {
	Code    int         `json:"code"`           // 响应码，0表示成功
	Message string      `json:"message"`        // 响应消息
	Data    interface{} `json:"data,omitempty"` // 响应数据
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`              // 错误码
	Message string `json:"message"`           // 错误消息
	Details string `json:"details,omitempty"` // 错误详情
}

// UnimplementedResponse 未实现命令的响应
type UnimplementedResponse struct {
	Command string `json:"command"`
	Status  string `json:"status"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

// SystemMetricsResponse 系统指标
type SystemMetricsResponse struct {
	Protocol     metrics.Snapshot   `json:"protocol"`
	Notification notification.Stats `json:"notification"`
	Subscribers  int                `json:"readingSubscribers"`
}

// DeviceSelectionRequest 设备选择请求
type DeviceSelectionRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// DeviceInfo 已存储的设备信息
type DeviceInfo struct {
	Alias         *storage.Alias              `json:"alias,omitempty"`
	StaticParams  *storage.StaticParamsRecord `json:"static_params,omitempty"`
	LatestMeasure *storage.Measurement        `json:"latest_measure,omitempty"`
}

// DeviceSelectionResponse 设备选择响应
type DeviceSelectionResponse struct {
	SelectedDeviceID  string      `json:"selected_device_id"`
	PreviousDeviceID  string      `json:"previous_device_id,omitempty"`
	DeviceExists      bool        `json:"device_exists"`
	DisableScheduled  bool        `json:"disable_scheduled"`
	ServiceModeDevice string      `json:"service_mode_device,omitempty"`
	DeviceInfo        *DeviceInfo `json:"device_info,omitempty"`
}

// ServiceModeRequest 服务模式开关请求
type ServiceModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ServiceModeResponse 服务模式状态
type ServiceModeResponse struct {
	coordination.ServiceModeSnapshot
	SelectedDevice    string `json:"selectedDevice,omitempty"`
	ServiceModeDevice string `json:"serviceModeDevice,omitempty"`
}

// ReadingsResponse 动态读数
type ReadingsResponse struct {
	HasData bool                  `json:"has_data"`
	Reading *coordination.Reading `json:"reading,omitempty"`
}

// RequestModeResponse 读数模式切换结果
type RequestModeResponse struct {
	RequestMode  string `json:"request_mode"`
	RequestValue byte   `json:"request_value"`
}

// ServiceParameterRequest 服务参数更新请求
type ServiceParameterRequest struct {
	DeviceID     string `json:"device_id" binding:"required"`
	ParamAddress *int   `json:"param_address" binding:"required"`
	ParamData    string `json:"param_data"`
}

// UpdateParameterRequest 单参数更新请求
type UpdateParameterRequest struct {
	ParamData string `json:"param_data"`
}

// DeviceParametersResponse 设备参数列表
type DeviceParametersResponse struct {
	DeviceID   string      `json:"device_id"`
	Parameters interface{} `json:"parameters"`
}

// DeviceActivityResponse 设备活动列表
type DeviceActivityResponse struct {
	Devices       []coordination.DeviceActivity `json:"devices"`
	Total         int                           `json:"total"`
	Online        int                           `json:"online"`
	WindowSeconds int                           `json:"windowSeconds"`
}
