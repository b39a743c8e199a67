package constants

// 集成器协议常量定义
//
// 帧结构:
// +--------+---------+----------------------------------+--------+
// | HEADER | PLAIN   | ENCRYPTED                        | FOOTER |
// | (4B)   | (17B)   | DATA_LEN(1B) DATA(nB) CRC8(1B)   | (3B)   |
// +--------+---------+----------------------------------+--------+

// ============================================================================
// 帧标识与长度
// ============================================================================

const (
	StartMarker1 byte = 0xAA // 起始标识1
	StartMarker2 byte = 0x55 // 起始标识2
	EndMarker    byte = 0x55 // 结束标识

	ProtocolVersion byte = 0x01 // 回复帧使用的协议版本

	FlagEncrypted byte = 0x01 // FLAGS bit0: 加密段已RC4加密

	HeaderSize       = 4  // HEADER长度
	PlainSize        = 17 // PLAIN长度
	EncryptedMinSize = 2  // DATA_LEN + CRC8
	FooterSize       = 3  // CRC16(2B) + 结束标识(1B)

	MinFrameSize = HeaderSize + PlainSize + EncryptedMinSize + FooterSize // 26字节

	// 字段位置
	FlagsPos          = 3
	DeviceIDPos       = HeaderSize
	DeviceIDSize      = 10
	CommandIDPos      = DeviceIDPos + DeviceIDSize // 14
	KeyIDPos          = CommandIDPos + 2           // 16
	TimestampPos      = KeyIDPos + 1               // 17
	TimestampSize     = 3
	SeqPos            = TimestampPos + TimestampSize // 20
	EncryptedStartPos = HeaderSize + PlainSize       // 21

	AckBit uint16 = 0x8000 // 回复帧COMMAND_ID最高位
)

// ============================================================================
// 命令ID
// ============================================================================

const (
	CmdRegisterUnit   uint16 = 0x0000 // 设备注册
	CmdCmd1           uint16 = 0x0001 // 保留命令1
	CmdCaptureAliases uint16 = 0x0002 // 上传别名信息
	CmdMeasureData    uint16 = 0x0003 // 上传测量数据
	CmdCaptureDynamic uint16 = 0x0004 // 上传动态读数
	CmdCaptureStatic  uint16 = 0x0005 // 上传静态参数
	CmdServiceData    uint16 = 0x0006 // 服务模式数据交换
)

// ============================================================================
// 回复字段
// ============================================================================

const (
	ReplyStatusOK byte = 0x01 // 回复STATUS

	RequestNormal   byte = 0x00 // 保持正常模式
	RequestReadings byte = 0x02 // 进入动态读数模式
	RequestService  byte = 0x03 // 进入/保持服务模式

	TimeFieldSize  = 19 // "YYYY-MM-DD HH:MM:SS"
	ParamValueSize = 19 // ServiceData回复中的参数值宽度

	StandardDataLen     = 2                                    // STATUS + REQUEST
	RegisterDataLen     = StandardDataLen + TimeFieldSize      // 21
	ServiceDataReplyLen = StandardDataLen + 1 + ParamValueSize // 22
)

// DisableServiceModeSentinel 调度给旧服务模式设备的关闭指令
const DisableServiceModeSentinel = "DISABLE_SERVICE_MODE"

// ============================================================================
// 加密默认值
// ============================================================================

const (
	DefaultKey1       = "Massensors"
	DefaultKey2       = "key2"
	DefaultIterations = 1000
)
