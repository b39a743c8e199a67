package protocol

import (
	"github.com/sigurn/crc16"
)

// crc16Table CCITT-FALSE: poly 0x1021, init 0xFFFF, 不反射, 无异或输出
var crc16Table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRC16 计算帧校验值，覆盖HEADER+PLAIN+ENCRYPTED(按传输时的字节)
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crc16Table)
}

// CRC8 计算加密段校验值
// 注意：这里是字节累加和取低8位，并非多项式CRC-8。
// 设备固件历史上出现过多项式版本，现网固件使用累加和，必须保持一致。
func CRC8(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
