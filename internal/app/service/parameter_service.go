package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/sirupsen/logrus"
)

// ParameterDefinition 参数地址定义
type ParameterDefinition struct {
	Address byte                      `json:"address"`
	Name    string                    `json:"name"`
	Format  constants.ParameterFormat `json:"format"`

	field func(p *integrator_protocol.StaticParams) *string
}

// 地址0为占位参数，不对应静态参数记录中的字段
var parameterDefinitions = []ParameterDefinition{
	{constants.ParamDummy, "dummy", constants.FormatOneByte, nil},
	{constants.ParamFilterRate, "filterRate", constants.FormatOneByte,
		func(p *integrator_protocol.StaticParams) *string { return &p.FilterRate }},
	{constants.ParamScaleCapacity, "scaleCapacity", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.ScaleCapacity }},
	{constants.ParamAutoZero, "autoZero", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.AutoZero }},
	{constants.ParamDeadBand, "deadBand", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.DeadBand }},
	{constants.ParamScaleType, "scaleType", constants.FormatOneByte,
		func(p *integrator_protocol.StaticParams) *string { return &p.ScaleType }},
	{constants.ParamLoadcellSet, "loadcellSet", constants.FormatOneByte,
		func(p *integrator_protocol.StaticParams) *string { return &p.LoadcellSet }},
	{constants.ParamLoadcellCapacity, "loadcellCapacity", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.LoadcellCapacity }},
	{constants.ParamTrimm, "trimm", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.Trimm }},
	{constants.ParamIdlerSpacing, "idlerSpacing", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.IdlerSpacing }},
	{constants.ParamSpeedSource, "speedSource", constants.FormatOneByte,
		func(p *integrator_protocol.StaticParams) *string { return &p.SpeedSource }},
	{constants.ParamWheelDiameter, "wheelDiameter", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.WheelDiameter }},
	{constants.ParamPulsesPerRev, "pulsesPerRev", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.PulsesPerRev }},
	{constants.ParamBeltLength, "beltLength", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.BeltLength }},
	{constants.ParamBeltLengthPulses, "beltLengthPulses", constants.FormatEightBytes,
		func(p *integrator_protocol.StaticParams) *string { return &p.BeltLengthPulses }},
	{constants.ParamCurrentTime, "currentTime", constants.FormatTime,
		func(p *integrator_protocol.StaticParams) *string { return &p.CurrentTime }},
}

var parameterIndex = func() map[byte]ParameterDefinition {
	m := make(map[byte]ParameterDefinition, len(parameterDefinitions))
	for _, def := range parameterDefinitions {
		m[def.Address] = def
	}
	return m
}()

// ParameterAddresses 返回全部参数地址定义，按地址排序
func ParameterAddresses() []ParameterDefinition {
	out := make([]ParameterDefinition, len(parameterDefinitions))
	copy(out, parameterDefinitions)
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// LookupParameter 按地址查找参数定义
func LookupParameter(address byte) (ParameterDefinition, bool) {
	def, ok := parameterIndex[address]
	return def, ok
}

// ParameterValue 参数的当前值
type ParameterValue struct {
	Address byte                      `json:"address"`
	Name    string                    `json:"name"`
	Value   string                    `json:"value"`
	Format  constants.ParameterFormat `json:"format"`
}

// ParameterUpdate 参数更新结果
type ParameterUpdate struct {
	DeviceID string `json:"deviceId"`
	Address  byte   `json:"address"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Queued   bool   `json:"queued"`
}

// ParameterService 设备参数读写服务
// 写入同时更新静态参数记录并放入待下发槽，等待设备下次ServiceData轮询
type ParameterService struct {
	repo  storage.Repository
	coord *coordination.Coordinator
	now   func() time.Time
}

// NewParameterService 创建参数服务
func NewParameterService(repo storage.Repository, coord *coordination.Coordinator) *ParameterService {
	return &ParameterService{repo: repo, coord: coord, now: time.Now}
}

// Validate 检查参数值是否符合地址对应的格式
func (s *ParameterService) Validate(address byte, value string) error {
	def, ok := LookupParameter(address)
	if !ok {
		return errors.Newf(errors.ErrInvalidParameter, "未知参数地址: %d", address)
	}

	switch def.Format {
	case constants.FormatOneByte:
		if value == "" || !unicode.IsDigit(rune(value[len(value)-1])) {
			return errors.Newf(errors.ErrInvalidParameter, "参数 %s 需要0-9的数字", def.Name)
		}
	case constants.FormatEightBytes:
		if len(value) > 8 {
			return errors.Newf(errors.ErrInvalidParameter, "参数 %s 长度超过8字节", def.Name)
		}
	case constants.FormatTime:
		if len(value) != constants.TimeFieldSize {
			return errors.Newf(errors.ErrInvalidParameter, "参数 %s 需要 YYYY-MM-DD HH:MM:SS 格式", def.Name)
		}
		if _, err := time.Parse(constants.TimeFormatDefault, value); err != nil {
			return errors.Wrap(errors.ErrInvalidParameter, "时间格式错误", err)
		}
	}
	return nil
}

// Format 按地址格式化参数值
// 1B取最后一位数字，8B补齐或截断到8字节，19B长度不符时使用当前时间
func (s *ParameterService) Format(address byte, value string) string {
	def, ok := LookupParameter(address)
	if !ok {
		return value
	}

	switch def.Format {
	case constants.FormatOneByte:
		if value == "" {
			return "0"
		}
		return value[len(value)-1:]
	case constants.FormatEightBytes:
		return string(padValue(value, 8))
	case constants.FormatTime:
		if len(value) != constants.TimeFieldSize {
			return s.now().Format(constants.TimeFormatDefault)
		}
	}
	return value
}

// UpdateParameter 更新设备参数
// 设备必须已上报过静态参数，否则返回DeviceNotFound
func (s *ParameterService) UpdateParameter(ctx context.Context, deviceID string, address byte, value string) (*ParameterUpdate, error) {
	if err := s.Validate(address, value); err != nil {
		return nil, err
	}
	def, _ := LookupParameter(address)
	formatted := s.Format(address, value)

	rec, err := s.repo.LatestStaticParams(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if def.field != nil {
		params := rec.Params
		*def.field(&params) = formatted
		if err := s.repo.UpsertStaticParams(ctx, deviceID, params); err != nil {
			return nil, asRepositoryFailure(err)
		}
	}
	s.coord.EnqueueParameter(deviceID, address, formatted)

	logger.WithFields(logrus.Fields{
		"deviceId": deviceID,
		"address":  address,
		"name":     def.Name,
		"value":    formatted,
	}).Info("参数已更新并等待下发")

	return &ParameterUpdate{
		DeviceID: deviceID,
		Address:  address,
		Name:     def.Name,
		Value:    formatted,
		Queued:   true,
	}, nil
}

// DeviceParameters 读取设备的全部参数
func (s *ParameterService) DeviceParameters(ctx context.Context, deviceID string) ([]ParameterValue, error) {
	rec, err := s.repo.LatestStaticParams(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	values := make([]ParameterValue, 0, len(parameterDefinitions))
	for _, def := range ParameterAddresses() {
		if def.field == nil {
			continue
		}
		values = append(values, ParameterValue{
			Address: def.Address,
			Name:    def.Name,
			Value:   strings.TrimSpace(*def.field(&rec.Params)),
			Format:  def.Format,
		})
	}
	return values, nil
}

// Parameter 读取设备的单个参数
func (s *ParameterService) Parameter(ctx context.Context, deviceID string, address byte) (*ParameterValue, error) {
	def, ok := LookupParameter(address)
	if !ok || def.field == nil {
		return nil, errors.Newf(errors.ErrInvalidParameter, "未知参数地址: %d", address)
	}

	rec, err := s.repo.LatestStaticParams(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return &ParameterValue{
		Address: def.Address,
		Name:    def.Name,
		Value:   strings.TrimSpace(*def.field(&rec.Params)),
		Format:  def.Format,
	}, nil
}
