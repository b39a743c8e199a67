package integrator_protocol

import (
	"strings"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/errors"
)

// 载荷字段均为定长ASCII，偏移从DATA_LEN之后的第一个字节开始计算

// fieldReader 顺序读取定长字段，首次越界后记录错误并停止读取
type fieldReader struct {
	data []byte
	pos  int
	err  error
}

func (r *fieldReader) next(name string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = errors.Newf(errors.ErrPayloadTruncated,
			"字段 %s 越界: 偏移 %d 长度 %d, 载荷仅 %d 字节", name, r.pos, n, len(r.data))
		return nil
	}
	field := r.data[r.pos : r.pos+n]
	r.pos += n
	return field
}

func (r *fieldReader) u8(name string) byte {
	field := r.next(name, 1)
	if field == nil {
		return 0
	}
	return field[0]
}

func (r *fieldReader) ascii(name string, n int) string {
	return strings.TrimSpace(string(r.next(name, n)))
}

// Preamble 所有上行载荷共有的 STATUS + REQUEST
type Preamble struct {
	Status  byte `json:"status"`
	Request byte `json:"request"`
}

func (p *Preamble) read(r *fieldReader) {
	p.Status = r.u8("status")
	p.Request = r.u8("request")
}

// MeasureData 测量数据 (0x0003)
type MeasureData struct {
	Preamble
	Speed       string `json:"speed"`       // 6B
	Rate        string `json:"rate"`        // 7B
	Total       string `json:"total"`       // 12B
	CurrentTime string `json:"currentTime"` // 19B
}

// UnmarshalBinary 解析测量数据载荷
func (m *MeasureData) UnmarshalBinary(data []byte) error {
	r := &fieldReader{data: data}
	m.Preamble.read(r)
	m.Speed = r.ascii("speed", 6)
	m.Rate = r.ascii("rate", 7)
	m.Total = r.ascii("total", 12)
	m.CurrentTime = r.ascii("currentTime", constants.TimeFieldSize)
	return r.err
}

// AliasData 别名信息 (0x0002)
type AliasData struct {
	Preamble
	Company     string `json:"company"`
	Location    string `json:"location"`
	ProductName string `json:"productName"`
	ScaleID     string `json:"scaleId"`
}

// UnmarshalBinary 解析别名载荷，四个字段各10字节
func (a *AliasData) UnmarshalBinary(data []byte) error {
	r := &fieldReader{data: data}
	a.Preamble.read(r)
	a.Company = r.ascii("company", 10)
	a.Location = r.ascii("location", 10)
	a.ProductName = r.ascii("productName", 10)
	a.ScaleID = r.ascii("scaleId", 10)
	return r.err
}

// DynamicData 动态读数 (0x0004)
type DynamicData struct {
	Preamble
	MVReading   string `json:"mvReading"`
	ConvDigits  string `json:"convDigits"`
	ScaleWeight string `json:"scaleWeight"`
	BeltWeight  string `json:"beltWeight"`
	CurrentTime string `json:"currentTime"`
}

// UnmarshalBinary 解析动态读数载荷
func (d *DynamicData) UnmarshalBinary(data []byte) error {
	r := &fieldReader{data: data}
	d.Preamble.read(r)
	d.MVReading = r.ascii("mvReading", 8)
	d.ConvDigits = r.ascii("convDigits", 8)
	d.ScaleWeight = r.ascii("scaleWeight", 8)
	d.BeltWeight = r.ascii("beltWeight", 8)
	d.CurrentTime = r.ascii("currentTime", constants.TimeFieldSize)
	return r.err
}

// StaticParams 静态参数的15个命名字段，同时作为持久化记录的内容
type StaticParams struct {
	FilterRate       string `json:"filterRate" cbor:"filterRate"`
	ScaleCapacity    string `json:"scaleCapacity" cbor:"scaleCapacity"`
	AutoZero         string `json:"autoZero" cbor:"autoZero"`
	DeadBand         string `json:"deadBand" cbor:"deadBand"`
	ScaleType        string `json:"scaleType" cbor:"scaleType"`
	LoadcellSet      string `json:"loadcellSet" cbor:"loadcellSet"`
	LoadcellCapacity string `json:"loadcellCapacity" cbor:"loadcellCapacity"`
	Trimm            string `json:"trimm" cbor:"trimm"`
	IdlerSpacing     string `json:"idlerSpacing" cbor:"idlerSpacing"`
	SpeedSource      string `json:"speedSource" cbor:"speedSource"`
	WheelDiameter    string `json:"wheelDiameter" cbor:"wheelDiameter"`
	PulsesPerRev     string `json:"pulsesPerRev" cbor:"pulsesPerRev"`
	BeltLength       string `json:"beltLength" cbor:"beltLength"`
	BeltLengthPulses string `json:"beltLengthPulses" cbor:"beltLengthPulses"`
	CurrentTime      string `json:"currentTime" cbor:"currentTime"`
}

// StaticData 静态参数 (0x0005)
type StaticData struct {
	Preamble
	StaticParams
}

// UnmarshalBinary 解析静态参数载荷
// pulsesPerRev 在线路上只占7字节，与其它8字节数值字段不同
func (s *StaticData) UnmarshalBinary(data []byte) error {
	r := &fieldReader{data: data}
	s.Preamble.read(r)
	p := &s.StaticParams
	p.FilterRate = r.ascii("filterRate", 1)
	p.ScaleCapacity = r.ascii("scaleCapacity", 8)
	p.AutoZero = r.ascii("autoZero", 8)
	p.DeadBand = r.ascii("deadBand", 8)
	p.ScaleType = r.ascii("scaleType", 1)
	p.LoadcellSet = r.ascii("loadcellSet", 1)
	p.LoadcellCapacity = r.ascii("loadcellCapacity", 8)
	p.Trimm = r.ascii("trimm", 8)
	p.IdlerSpacing = r.ascii("idlerSpacing", 8)
	p.SpeedSource = r.ascii("speedSource", 1)
	p.WheelDiameter = r.ascii("wheelDiameter", 8)
	p.PulsesPerRev = r.ascii("pulsesPerRev", 7)
	p.BeltLength = r.ascii("beltLength", 8)
	p.BeltLengthPulses = r.ascii("beltLengthPulses", 8)
	p.CurrentTime = r.ascii("currentTime", constants.TimeFieldSize)
	return r.err
}

// ServiceData 服务模式数据 (0x0006)，STATUS/REQUEST之后的字节忽略
type ServiceData struct {
	Preamble
}

// UnmarshalBinary 解析服务数据载荷
func (s *ServiceData) UnmarshalBinary(data []byte) error {
	r := &fieldReader{data: data}
	s.Preamble.read(r)
	return r.err
}

// ParseMeasureData 解析测量数据
func ParseMeasureData(data []byte) (*MeasureData, error) {
	m := &MeasureData{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseAliasData 解析别名信息
func ParseAliasData(data []byte) (*AliasData, error) {
	a := &AliasData{}
	if err := a.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseDynamicData 解析动态读数
func ParseDynamicData(data []byte) (*DynamicData, error) {
	d := &DynamicData{}
	if err := d.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseStaticData 解析静态参数
func ParseStaticData(data []byte) (*StaticData, error) {
	s := &StaticData{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseServiceData 解析服务数据
func ParseServiceData(data []byte) (*ServiceData, error) {
	s := &ServiceData{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// ConveyorStatusFromByte 将帧内STATUS字节解释为输送带状态
func ConveyorStatusFromByte(b byte) constants.ConveyorStatus {
	switch b {
	case 0x00:
		return constants.ConveyorStopped
	case 0x01:
		return constants.ConveyorRunning
	case 0x02:
		return constants.ConveyorError
	default:
		return constants.ConveyorUnknown
	}
}

// ConveyorStatusMessage 输送带状态的展示文本
func ConveyorStatusMessage(status constants.ConveyorStatus) string {
	switch status {
	case constants.ConveyorStopped:
		return "输送带已停止"
	case constants.ConveyorRunning:
		return "输送带运行中"
	case constants.ConveyorError:
		return "输送带故障"
	default:
		return "未知状态"
	}
}
