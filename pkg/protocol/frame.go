package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/massensors/py-server3/pkg/constants"
)

// Header 帧头 (4B)
type Header struct {
	Start1  byte `json:"start1"`
	Start2  byte `json:"start2"`
	Version byte `json:"version"`
	Flags   byte `json:"flags"`
}

// Plain 明文段 (17B)
type Plain struct {
	DeviceID  [constants.DeviceIDSize]byte  `json:"-"`
	CommandID uint16                        `json:"commandId"`
	KeyID     byte                          `json:"keyId"`
	Timestamp [constants.TimestampSize]byte `json:"timestamp"`
	Seq       byte                          `json:"seq"`
}

// Segment 加密段，解码后保存的是解密后的内容
type Segment struct {
	DataLen byte   `json:"dataLen"`
	Data    []byte `json:"data"`
	CRC8    byte   `json:"crc8"`
}

// Footer 帧尾 (3B)
type Footer struct {
	CRC16     uint16 `json:"crc16"`
	EndMarker byte   `json:"endMarker"`
}

// Frame 解码后的设备帧
type Frame struct {
	Header    Header  `json:"header"`
	Plain     Plain   `json:"plain"`
	Encrypted Segment `json:"encrypted"`
	Footer    Footer  `json:"footer"`

	raw []byte // header+plain+解密段+footer
}

// DeviceID 返回去除填充后的设备标识
func (f *Frame) DeviceID() string {
	return TrimDeviceID(f.Plain.DeviceID[:])
}

// CommandID 返回命令ID
func (f *Frame) CommandID() uint16 {
	return f.Plain.CommandID
}

// IsEncrypted 加密段在线路上是否经过RC4加密
func (f *Frame) IsEncrypted() bool {
	return f.Header.Flags&constants.FlagEncrypted != 0
}

// Data 返回不含DATA_LEN与CRC8的载荷
func (f *Frame) Data() []byte {
	return f.Encrypted.Data
}

// Raw 返回重组后的帧（加密段为明文）
func (f *Frame) Raw() []byte {
	return f.raw
}

// String 便于日志输出的摘要
func (f *Frame) String() string {
	return fmt.Sprintf("device=%s cmd=0x%04X enc=%t seq=%d data=%s",
		f.DeviceID(), f.CommandID(), f.IsEncrypted(), f.Plain.Seq, hex.EncodeToString(f.Encrypted.Data))
}

// TrimDeviceID 去掉设备ID两端的空格与0x00填充
func TrimDeviceID(raw []byte) string {
	return strings.Trim(string(raw), " \x00")
}

// PadDeviceID 将设备ID右侧补空格到10字节，超长截断
func PadDeviceID(id string) [constants.DeviceIDSize]byte {
	var out [constants.DeviceIDSize]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], id)
	return out
}
