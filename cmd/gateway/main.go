// 积算仪协议网关
//
// 接收积算仪设备通过HTTP上送的二进制帧，解析入库并返回回复帧，
// 同时为运维工具提供设备选择、服务模式、参数下发与实时读数接口。
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
