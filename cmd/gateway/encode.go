package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/spf13/cobra"
)

var (
	encodeDevice  string
	encodeCommand string
	encodeData    string
	encodeEncrypt bool
	encodeSeq     uint8
	encodeKeyID   uint8
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "构建一帧设备上行数据",
	Long: `按给定的设备ID、命令与载荷构建一帧，输出十六进制。

用于联调时模拟设备请求，例如:
  gateway encode --device SCALE01 --cmd 0x0003 --data 0100 --encrypt`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVarP(&encodeDevice, "device", "d", "", "设备ID（最长10字节）")
	encodeCmd.Flags().StringVar(&encodeCommand, "cmd", "", "命令ID，支持十进制或0x前缀")
	encodeCmd.Flags().StringVar(&encodeData, "data", "", "载荷的十六进制")
	encodeCmd.Flags().BoolVarP(&encodeEncrypt, "encrypt", "e", false, "加密段是否RC4加密")
	encodeCmd.Flags().Uint8Var(&encodeSeq, "seq", 0, "帧序号")
	encodeCmd.Flags().Uint8Var(&encodeKeyID, "key-id", 1, "密钥ID")
	_ = encodeCmd.MarkFlagRequired("device")
	_ = encodeCmd.MarkFlagRequired("cmd")
}

func runEncode(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}

	commandID, err := strconv.ParseUint(encodeCommand, 0, 16)
	if err != nil {
		return fmt.Errorf("命令ID无效: %w", err)
	}
	data, err := parseHex(encodeData)
	if err != nil {
		return fmt.Errorf("载荷十六进制解析失败: %w", err)
	}

	raw, err := codecFor(cfg).BuildFrame(protocol.FrameSpec{
		Version:   constants.ProtocolVersion,
		DeviceID:  protocol.PadDeviceID(encodeDevice),
		CommandID: uint16(commandID),
		KeyID:     encodeKeyID,
		Seq:       encodeSeq,
		Data:      data,
		Encrypt:   encodeEncrypt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
	return nil
}
