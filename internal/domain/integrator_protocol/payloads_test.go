package integrator_protocol

import (
	"strings"
	"testing"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
)

// field 右对齐补空格到指定宽度
func field(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func staticPayload() []byte {
	var b strings.Builder
	b.WriteByte(0x01)
	b.WriteByte(0x03)
	b.WriteString("4")
	b.WriteString(field("1200.0", 8))
	b.WriteString(field("0.5", 8))
	b.WriteString(field("0.1", 8))
	b.WriteString("2")
	b.WriteString("1")
	b.WriteString(field("500", 8))
	b.WriteString(field("1.0032", 8))
	b.WriteString(field("1.2", 8))
	b.WriteString("0")
	b.WriteString(field("150.0", 8))
	b.WriteString(field("360", 7))
	b.WriteString(field("84.5", 8))
	b.WriteString(field("20480", 8))
	b.WriteString("2024-05-01 12:00:00")
	return []byte(b.String())
}

func TestParseCommand(t *testing.T) {
	for id := uint16(0); id <= 6; id++ {
		cmd, ok := ParseCommand(id)
		if !ok {
			t.Errorf("命令 0x%04X 应为已知命令", id)
		}
		if uint16(cmd) != id {
			t.Errorf("命令值不一致: 期望 0x%04X, 实际 0x%04X", id, uint16(cmd))
		}
	}

	if _, ok := ParseCommand(0x0007); ok {
		t.Error("0x0007 不应被识别")
	}
	if got := Command(0x00AB).String(); got != "CMD_00ab" {
		t.Errorf("未知命令名错误: %s", got)
	}
	if got := CmdMeasureData.String(); got != "MEASURE_DATA" {
		t.Errorf("命令名错误: %s", got)
	}
}

func TestParseMeasureData(t *testing.T) {
	payload := []byte{0x01, 0x03}
	payload = append(payload, "  1.25  120.5     12345.62024-05-01 12:00:00"...)

	m, err := ParseMeasureData(payload)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if m.Status != 0x01 || m.Request != 0x03 {
		t.Errorf("STATUS/REQUEST错误: %d/%d", m.Status, m.Request)
	}
	if m.Speed != "1.25" || m.Rate != "120.5" || m.Total != "12345.6" {
		t.Errorf("数值字段错误: %+v", m)
	}
	if m.CurrentTime != "2024-05-01 12:00:00" {
		t.Errorf("时间字段错误: %q", m.CurrentTime)
	}
}

func TestParseAliasData(t *testing.T) {
	payload := []byte{0x00, 0x00}
	payload = append(payload, field("ACME", 10)+field("Gdansk", 10)+field("Coal", 10)+field("SC-01", 10)...)

	a, err := ParseAliasData(payload)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if a.Company != "ACME" || a.Location != "Gdansk" || a.ProductName != "Coal" || a.ScaleID != "SC-01" {
		t.Errorf("别名字段错误: %+v", a)
	}
}

func TestParseDynamicData(t *testing.T) {
	payload := []byte{0x01, 0x02}
	payload = append(payload, field("12.5", 8)+field("803412", 8)+field("35.2", 8)+field("11.0", 8)+"2024-05-01 12:00:01"...)

	d, err := ParseDynamicData(payload)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if d.MVReading != "12.5" || d.ConvDigits != "803412" || d.ScaleWeight != "35.2" || d.BeltWeight != "11.0" {
		t.Errorf("读数字段错误: %+v", d)
	}
	if d.CurrentTime != "2024-05-01 12:00:01" {
		t.Errorf("时间字段错误: %q", d.CurrentTime)
	}
}

func TestParseStaticData(t *testing.T) {
	payload := staticPayload()
	if len(payload) != 104 {
		t.Fatalf("测试载荷长度错误: %d", len(payload))
	}

	s, err := ParseStaticData(payload)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	want := StaticParams{
		FilterRate:       "4",
		ScaleCapacity:    "1200.0",
		AutoZero:         "0.5",
		DeadBand:         "0.1",
		ScaleType:        "2",
		LoadcellSet:      "1",
		LoadcellCapacity: "500",
		Trimm:            "1.0032",
		IdlerSpacing:     "1.2",
		SpeedSource:      "0",
		WheelDiameter:    "150.0",
		PulsesPerRev:     "360",
		BeltLength:       "84.5",
		BeltLengthPulses: "20480",
		CurrentTime:      "2024-05-01 12:00:00",
	}
	if s.StaticParams != want {
		t.Errorf("静态参数不一致:\n期望 %+v\n实际 %+v", want, s.StaticParams)
	}
}

func TestParseServiceData(t *testing.T) {
	s, err := ParseServiceData([]byte{0x01, 0x03, 0xFF, 0xEE})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if s.Status != 0x01 || s.Request != 0x03 {
		t.Errorf("STATUS/REQUEST错误: %+v", s)
	}
}

func TestParse_Truncated(t *testing.T) {
	measure := []byte{0x01, 0x00}
	measure = append(measure, "  1.25  120.5     12345.6"...)

	testCases := []struct {
		name  string
		parse func() error
	}{
		{"测量数据缺少时间", func() error { _, err := ParseMeasureData(measure); return err }},
		{"别名为空", func() error { _, err := ParseAliasData(nil); return err }},
		{"动态读数只有前导", func() error { _, err := ParseDynamicData([]byte{1, 2}); return err }},
		{"静态参数少一字节", func() error { _, err := ParseStaticData(staticPayload()[:103]); return err }},
		{"服务数据缺少REQUEST", func() error { _, err := ParseServiceData([]byte{1}); return err }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.parse()
			if err == nil {
				t.Fatal("期望返回越界错误")
			}
			if !errors.IsErrCode(err, errors.ErrPayloadTruncated) {
				t.Errorf("错误码不正确: %v", err)
			}
		})
	}
}

func TestConveyorStatusFromByte(t *testing.T) {
	cases := map[byte]constants.ConveyorStatus{
		0x00: constants.ConveyorStopped,
		0x01: constants.ConveyorRunning,
		0x02: constants.ConveyorError,
		0x7F: constants.ConveyorUnknown,
	}
	for b, want := range cases {
		if got := ConveyorStatusFromByte(b); got != want {
			t.Errorf("状态字节 0x%02X: 期望 %s, 实际 %s", b, want, got)
		}
	}
}
