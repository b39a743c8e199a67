// Package constants 定义了项目中使用的各种常量
package constants

// ConveyorStatus 输送带状态，由设备帧中的STATUS字节解释而来
type ConveyorStatus string

const (
	ConveyorStopped ConveyorStatus = "stopped"
	ConveyorRunning ConveyorStatus = "running"
	ConveyorError   ConveyorStatus = "error"
	ConveyorUnknown ConveyorStatus = "unknown"
)

// RequestMode 服务模式下请求设备进入的工作方式
type RequestMode string

const (
	RequestModeNormal   RequestMode = "normal"
	RequestModeService  RequestMode = "service"
	RequestModeReadings RequestMode = "readings"
)

// ParameterFormat 参数值格式
type ParameterFormat string

const (
	FormatOneByte    ParameterFormat = "1B"  // 单个数字 0-9
	FormatEightBytes ParameterFormat = "8B"  // 8字符数值
	FormatTime       ParameterFormat = "19B" // "YYYY-MM-DD HH:MM:SS"
)

// 参数地址，对应设备静态参数表
const (
	ParamDummy            byte = 0
	ParamFilterRate       byte = 1
	ParamScaleCapacity    byte = 2
	ParamAutoZero         byte = 3
	ParamDeadBand         byte = 4
	ParamScaleType        byte = 5
	ParamLoadcellSet      byte = 6
	ParamLoadcellCapacity byte = 7
	ParamTrimm            byte = 8
	ParamIdlerSpacing     byte = 9
	ParamSpeedSource      byte = 10
	ParamWheelDiameter    byte = 11
	ParamPulsesPerRev     byte = 12
	ParamBeltLength       byte = 13
	ParamBeltLengthPulses byte = 14
	ParamCurrentTime      byte = 15
)

// 设备在线判定窗口（秒）
const DefaultOnlineWindowSeconds = 120
