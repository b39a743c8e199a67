package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "解析一帧十六进制数据",
	Long: `校验并解析一帧数据，输出帧头、明文段、解密后的载荷与校验结果。

十六进制中的空格会被忽略。加密段使用配置中的 protocol.key1/key2/iterations 解密。`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(cmd)
	if err != nil {
		return err
	}
	raw, err := parseHex(args[0])
	if err != nil {
		return fmt.Errorf("十六进制解析失败: %w", err)
	}
	return decodeFrame(cmd.OutOrStdout(), codecFor(cfg), raw)
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

func codecFor(cfg *config.Config) *protocol.Codec {
	return protocol.NewCodec(protocol.Keys{
		Key1:       cfg.Protocol.Key1,
		Key2:       cfg.Protocol.Key2,
		Iterations: cfg.Protocol.Iterations,
	})
}

func decodeFrame(out io.Writer, codec *protocol.Codec, raw []byte) error {
	if !protocol.ValidateFrame(raw) {
		fmt.Fprintf(out, "帧长度: %d\nCRC16: 无效\n", len(raw))
		return fmt.Errorf("帧结构或CRC16校验失败")
	}

	frame, crcOK, err := codec.Decode(raw)
	if err != nil {
		return err
	}

	name := integrator_protocol.UnknownCommandName(frame.CommandID())
	if c, ok := integrator_protocol.ParseCommand(frame.CommandID()); ok {
		name = c.String()
	}

	fmt.Fprintf(out, "帧长度:   %d\n", len(raw))
	fmt.Fprintf(out, "版本:     0x%02X\n", frame.Header.Version)
	fmt.Fprintf(out, "加密:     %t\n", frame.IsEncrypted())
	fmt.Fprintf(out, "设备ID:   %s\n", frame.DeviceID())
	fmt.Fprintf(out, "命令:     0x%04X (%s)\n", frame.CommandID(), name)
	fmt.Fprintf(out, "密钥ID:   0x%02X\n", frame.Plain.KeyID)
	fmt.Fprintf(out, "时间戳:   %s\n", hex.EncodeToString(frame.Plain.Timestamp[:]))
	fmt.Fprintf(out, "序号:     %d\n", frame.Plain.Seq)
	fmt.Fprintf(out, "数据长度: %d\n", frame.Encrypted.DataLen)
	fmt.Fprintf(out, "数据:     %s\n", hex.EncodeToString(frame.Data()))
	fmt.Fprintf(out, "CRC8:     0x%02X (%s)\n", frame.Encrypted.CRC8, validText(crcOK))
	fmt.Fprintf(out, "CRC16:    0x%04X (有效)\n", frame.Footer.CRC16)

	if !crcOK {
		return fmt.Errorf("CRC8校验失败，密钥可能不匹配")
	}

	payload, err := decodePayload(frame.CommandID(), frame.Data())
	if err != nil {
		fmt.Fprintf(out, "载荷解析失败: %v\n", err)
		return nil
	}
	if payload != nil {
		body, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Fprintf(out, "载荷:\n%s\n", body)
	}
	return nil
}

// decodePayload 按命令解析载荷，无载荷结构的命令返回nil
func decodePayload(commandID uint16, data []byte) (interface{}, error) {
	c, ok := integrator_protocol.ParseCommand(commandID)
	if !ok {
		return nil, nil
	}
	switch c {
	case integrator_protocol.CmdMeasureData:
		return integrator_protocol.ParseMeasureData(data)
	case integrator_protocol.CmdCaptureAliases:
		return integrator_protocol.ParseAliasData(data)
	case integrator_protocol.CmdCaptureDynamic:
		return integrator_protocol.ParseDynamicData(data)
	case integrator_protocol.CmdCaptureStatic:
		return integrator_protocol.ParseStaticData(data)
	case integrator_protocol.CmdServiceData:
		return integrator_protocol.ParseServiceData(data)
	}
	return nil, nil
}

func validText(ok bool) string {
	if ok {
		return "有效"
	}
	return "无效"
}
