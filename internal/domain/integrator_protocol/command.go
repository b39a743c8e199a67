package integrator_protocol

import (
	"fmt"

	"github.com/massensors/py-server3/pkg/constants"
)

// Command 集成器协议命令，取值范围封闭
type Command uint16

const (
	CmdRegisterUnit   = Command(constants.CmdRegisterUnit)
	CmdCmd1           = Command(constants.CmdCmd1)
	CmdCaptureAliases = Command(constants.CmdCaptureAliases)
	CmdMeasureData    = Command(constants.CmdMeasureData)
	CmdCaptureDynamic = Command(constants.CmdCaptureDynamic)
	CmdCaptureStatic  = Command(constants.CmdCaptureStatic)
	CmdServiceData    = Command(constants.CmdServiceData)
)

var commandNames = map[Command]string{
	CmdRegisterUnit:   "REGISTER_UNIT",
	CmdCmd1:           "CMD_1",
	CmdCaptureAliases: "CAPTURE_ALIASES",
	CmdMeasureData:    "MEASURE_DATA",
	CmdCaptureDynamic: "CAPTURE_DYNAMIC",
	CmdCaptureStatic:  "CAPTURE_STATIC",
	CmdServiceData:    "SERVICE_DATA",
}

// ParseCommand 将线路上的命令ID映射为已知命令
// 未知ID返回false，由调用方给出"未实现"结果
func ParseCommand(id uint16) (Command, bool) {
	cmd := Command(id)
	_, ok := commandNames[cmd]
	return cmd, ok
}

// String 返回命令名，未知命令格式化为 CMD_xxxx
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return UnknownCommandName(uint16(c))
}

// UnknownCommandName 未实现命令的展示名
func UnknownCommandName(id uint16) string {
	return fmt.Sprintf("CMD_%04x", id)
}
