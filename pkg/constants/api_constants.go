package constants

// HTTP API 响应状态码
const (
	SuccessCode = 200
	ErrorCode   = 500
	NotFound    = 404
)

// API 响应消息
const (
	SuccessMessage = "success"
	ErrorMessage   = "error"

	StatusNotImplemented = "not_implemented"
)

// API 路由前缀
const (
	APIPrefixV1 = "/api/v1"
)

// 设备入口与管理API路径
const (
	CommandsGroup        = "/commands"
	DeviceSelectionGroup = "/device-selection"
	ServiceModeGroup     = "/service-mode"
	DynamicReadingsGroup = "/dynamic-readings"
	ApplicationGroup     = "/app"
	MachineStateGroup    = "/machine-state"
	DevicesGroup         = "/devices"
)

// 内容类型与时间格式
const (
	OctetStreamMediaType = "application/octet-stream"
	TimeFormatDefault    = "2006-01-02 15:04:05"
)
