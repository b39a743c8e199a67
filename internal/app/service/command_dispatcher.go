package service

import (
	"context"
	"fmt"
	"time"

	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/constants"
	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/massensors/py-server3/pkg/metrics"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Result 一次命令处理的结果
// Unimplemented为true时没有回复帧，调用方应返回"未实现"描述
type Result struct {
	Reply         []byte `json:"-"`
	Unimplemented bool   `json:"unimplemented"`
	CommandID     uint16 `json:"commandId"`
	CommandName   string `json:"command"`
	DeviceID      string `json:"deviceId"`
	Request       byte   `json:"request"`
}

// CommandDispatcher 集成器命令调度器
// 按命令ID分派到对应处理函数，协调状态全部来自注入的Coordinator
type CommandDispatcher struct {
	coord   *coordination.Coordinator
	repo    storage.Repository
	codec   *protocol.Codec
	metrics *metrics.GatewayMetrics
	commLog *logger.CommLogger
	now     func() time.Time
}

// NewCommandDispatcher 创建命令调度器
func NewCommandDispatcher(coord *coordination.Coordinator, repo storage.Repository, codec *protocol.Codec) *CommandDispatcher {
	return &CommandDispatcher{
		coord:   coord,
		repo:    repo,
		codec:   codec,
		metrics: metrics.Global(),
		commLog: logger.NewNopCommLogger(),
		now:     time.Now,
	}
}

// WithMetrics 替换指标实例
func (d *CommandDispatcher) WithMetrics(m *metrics.GatewayMetrics) *CommandDispatcher {
	d.metrics = m
	return d
}

// WithCommLogger 设置通信日志
func (d *CommandDispatcher) WithCommLogger(c *logger.CommLogger) *CommandDispatcher {
	d.commLog = c
	return d
}

// WithClock 替换时钟，用于测试注册回复中的时间字段
func (d *CommandDispatcher) WithClock(now func() time.Time) *CommandDispatcher {
	d.now = now
	return d
}

// Codec 返回调度器使用的编解码器
func (d *CommandDispatcher) Codec() *protocol.Codec {
	return d.codec
}

// Process 处理一帧原始入站数据: 校验CRC16、解码、校验CRC8、分派
// 帧格式错误返回FrameMalformed，CRC8不匹配返回ChecksumInvalid，均不产生回复帧
func (d *CommandDispatcher) Process(ctx context.Context, raw []byte) (*Result, error) {
	if !protocol.ValidateFrame(raw) {
		err := errors.New(errors.ErrFrameMalformed, "帧校验失败: 结束标识或CRC16错误")
		d.reject(err, raw)
		return nil, err
	}

	frame, crcOK, err := d.codec.Decode(raw)
	if err != nil {
		d.reject(err, raw)
		return nil, err
	}
	d.commLog.Frame(logger.DirectionIngress, frame.DeviceID(), frame.CommandID(), frame.Raw())

	if !crcOK {
		err := errors.Newf(errors.ErrChecksumInvalid, "CRC8校验失败: 设备 %s 命令 0x%04X",
			frame.DeviceID(), frame.CommandID())
		d.reject(err, raw)
		return nil, err
	}

	return d.Handle(ctx, frame)
}

func (d *CommandDispatcher) reject(err error, raw []byte) {
	code := errors.CodeOf(err)
	d.metrics.IncrementRejection(code.String())
	d.commLog.Rejected(code.String(), raw)
	logger.WithFields(logrus.Fields{
		"length": len(raw),
		"error":  err.Error(),
	}).Warn("拒绝入站帧")
}

// Handle 分派已解码的帧
// 未知命令返回Unimplemented结果而不是错误
func (d *CommandDispatcher) Handle(ctx context.Context, frame *protocol.Frame) (*Result, error) {
	start := time.Now()
	deviceID := frame.DeviceID()

	cmd, known := integrator_protocol.ParseCommand(frame.CommandID())
	if !known {
		d.metrics.IncrementUnimplemented()
		logger.WithFields(logrus.Fields{
			"deviceId":  deviceID,
			"commandId": fmt.Sprintf("0x%04X", frame.CommandID()),
		}).Warn("未实现的命令")
		return &Result{
			Unimplemented: true,
			CommandID:     frame.CommandID(),
			CommandName:   integrator_protocol.UnknownCommandName(frame.CommandID()),
			DeviceID:      deviceID,
		}, nil
	}

	var (
		request byte
		extra   []byte
		err     error
	)
	switch cmd {
	case integrator_protocol.CmdRegisterUnit:
		request, extra = d.handleRegisterUnit()
	case integrator_protocol.CmdCmd1:
		request = d.coord.RequestFor(deviceID)
	case integrator_protocol.CmdCaptureAliases:
		request, err = d.handleCaptureAliases(ctx, deviceID, frame.Data())
	case integrator_protocol.CmdMeasureData:
		request, err = d.handleMeasureData(ctx, deviceID, frame.Data())
	case integrator_protocol.CmdCaptureDynamic:
		request, err = d.handleCaptureDynamic(deviceID, frame.Data())
	case integrator_protocol.CmdCaptureStatic:
		request, err = d.handleCaptureStatic(ctx, deviceID, frame.Data())
	case integrator_protocol.CmdServiceData:
		request, extra, err = d.handleServiceData(deviceID, frame.Data())
	default:
		err = errors.Newf(errors.ErrNotImplemented, "命令 %s 没有处理函数", cmd)
	}
	if err != nil {
		d.metrics.IncrementRejection(errors.CodeOf(err).String())
		logger.WithFields(logrus.Fields{
			"deviceId": deviceID,
			"command":  cmd.String(),
			"error":    err.Error(),
		}).Error("命令处理失败")
		return nil, err
	}

	d.coord.Activity.Touch(deviceID)
	d.coord.Machine.Observe(frame.CommandID(), request)

	reply, err := d.codec.EncodeReply(protocol.ReplySpec{
		DeviceID:  frame.Plain.DeviceID,
		CommandID: frame.CommandID(),
		Status:    constants.ReplyStatusOK,
		Request:   request,
		Extra:     extra,
		Encrypt:   frame.IsEncrypted(),
	})
	if err != nil {
		return nil, err
	}
	d.commLog.Frame(logger.DirectionEgress, deviceID, frame.CommandID()|constants.AckBit, reply)

	d.metrics.IncrementCommand(cmd.String())
	d.metrics.RecordProcessingTime(cmd.String(), time.Since(start))
	logger.WithFields(logrus.Fields{
		"deviceId":  deviceID,
		"command":   cmd.String(),
		"request":   fmt.Sprintf("0x%02X", request),
		"encrypted": frame.IsEncrypted(),
	}).Debug("命令处理完成")

	return &Result{
		Reply:       reply,
		CommandID:   frame.CommandID(),
		CommandName: cmd.String(),
		DeviceID:    deviceID,
		Request:     request,
	}, nil
}

// handleRegisterUnit 注册回复附带当前时间，REQUEST固定为0x00
func (d *CommandDispatcher) handleRegisterUnit() (byte, []byte) {
	ts := d.now().Format(constants.TimeFormatDefault)
	return constants.RequestNormal, []byte(ts)
}

func (d *CommandDispatcher) handleCaptureAliases(ctx context.Context, deviceID string, data []byte) (byte, error) {
	alias, err := integrator_protocol.ParseAliasData(data)
	if err != nil {
		return 0, err
	}
	if err := d.repo.UpsertAlias(ctx, storage.Alias{
		DeviceID:    deviceID,
		Company:     alias.Company,
		Location:    alias.Location,
		ProductName: alias.ProductName,
		ScaleID:     alias.ScaleID,
	}); err != nil {
		return 0, asRepositoryFailure(err)
	}
	return d.coord.RequestFor(deviceID), nil
}

func (d *CommandDispatcher) handleMeasureData(ctx context.Context, deviceID string, data []byte) (byte, error) {
	m, err := integrator_protocol.ParseMeasureData(data)
	if err != nil {
		return 0, err
	}
	if err := d.repo.SaveMeasurement(ctx, storage.Measurement{
		DeviceID:    deviceID,
		Speed:       m.Speed,
		Rate:        m.Rate,
		Total:       m.Total,
		CurrentTime: m.CurrentTime,
	}); err != nil {
		return 0, asRepositoryFailure(err)
	}

	d.updateConveyorStatus(m.Status)
	if d.coord.Devices.IsSelected(deviceID) {
		d.coord.Mode.SetActive(false)
	}
	return d.coord.RequestFor(deviceID), nil
}

// handleCaptureDynamic 动态读数只写入内存缓存
func (d *CommandDispatcher) handleCaptureDynamic(deviceID string, data []byte) (byte, error) {
	dyn, err := integrator_protocol.ParseDynamicData(data)
	if err != nil {
		return 0, err
	}
	d.coord.Readings.Update(coordination.Reading{
		DeviceID:    deviceID,
		MVReading:   dyn.MVReading,
		ConvDigits:  dyn.ConvDigits,
		ScaleWeight: dyn.ScaleWeight,
		BeltWeight:  dyn.BeltWeight,
		CurrentTime: dyn.CurrentTime,
		ReceivedAt:  d.now(),
	})
	if d.coord.Devices.IsSelected(deviceID) {
		d.coord.Mode.SetActive(true)
	}
	return d.coord.RequestFor(deviceID), nil
}

func (d *CommandDispatcher) handleCaptureStatic(ctx context.Context, deviceID string, data []byte) (byte, error) {
	s, err := integrator_protocol.ParseStaticData(data)
	if err != nil {
		return 0, err
	}
	if err := d.repo.UpsertStaticParams(ctx, deviceID, s.StaticParams); err != nil {
		return 0, asRepositoryFailure(err)
	}
	return d.coord.RequestFor(deviceID), nil
}

// handleServiceData 取走匹配本设备的待下发参数并编入回复
// 没有待下发参数时回复地址0与空白值
func (d *CommandDispatcher) handleServiceData(deviceID string, data []byte) (byte, []byte, error) {
	sd, err := integrator_protocol.ParseServiceData(data)
	if err != nil {
		return 0, nil, err
	}

	address := constants.ParamDummy
	value := ""
	if p, ok := d.coord.Parameters.TakeFor(deviceID); ok {
		address = p.Address
		value = p.Value
		logger.WithFields(logrus.Fields{
			"deviceId": deviceID,
			"address":  p.Address,
			"value":    p.Value,
		}).Info("下发待写入参数")
	}

	d.updateConveyorStatus(sd.Status)
	if d.coord.Devices.IsSelected(deviceID) {
		d.coord.Mode.SetActive(true)
	}

	extra := make([]byte, 0, 1+constants.ParamValueSize)
	extra = append(extra, address)
	extra = append(extra, padValue(value, constants.ParamValueSize)...)
	return d.coord.RequestFor(deviceID), extra, nil
}

func (d *CommandDispatcher) updateConveyorStatus(b byte) {
	status := integrator_protocol.ConveyorStatusFromByte(b)
	d.coord.Mode.SetConveyorStatus(status, integrator_protocol.ConveyorStatusMessage(status))
}

// padValue 截断或以空格补齐到固定宽度
func padValue(value string, width int) []byte {
	out := make([]byte, width)
	n := copy(out, value)
	for i := n; i < width; i++ {
		out[i] = ' '
	}
	return out
}

// asRepositoryFailure 存储层未归类的错误统一归为RepositoryFailure
func asRepositoryFailure(err error) error {
	if errors.IsErrCode(err, errors.ErrRepositoryFailure) {
		return err
	}
	return errors.Wrap(errors.ErrRepositoryFailure, "存储操作失败", err)
}
