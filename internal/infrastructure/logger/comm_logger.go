package logger

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/massensors/py-server3/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 通信方向
const (
	DirectionIngress = "ingress"
	DirectionEgress  = "egress"
)

// CommLogger 帧级通信日志，记录收发帧的十六进制内容
type CommLogger struct {
	zl *zap.Logger
}

// NewCommLogger 创建通信日志
// logHexDump关闭时返回空实现；commLogPath为空时输出到标准输出
func NewCommLogger(cfg *config.LoggerConfig) (*CommLogger, error) {
	if !cfg.LogHexDump {
		return NewNopCommLogger(), nil
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var sink zapcore.WriteSyncer
	if cfg.CommLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.CommLogPath), 0o755); err != nil {
			return nil, fmt.Errorf("创建通信日志目录失败: %w", err)
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.CommLogPath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		})
	} else {
		sink = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, zapcore.DebugLevel)
	return &CommLogger{zl: zap.New(core).Named("comm")}, nil
}

// NewNopCommLogger 不输出任何内容的通信日志
func NewNopCommLogger() *CommLogger {
	return &CommLogger{zl: zap.NewNop()}
}

// NewCommLoggerWithCore 使用指定core创建，用于测试
func NewCommLoggerWithCore(core zapcore.Core) *CommLogger {
	return &CommLogger{zl: zap.New(core)}
}

// Frame 记录一帧收发数据
func (c *CommLogger) Frame(direction, deviceID string, commandID uint16, raw []byte) {
	if c == nil {
		return
	}
	c.zl.Info("frame",
		zap.String("direction", direction),
		zap.String("device_id", deviceID),
		zap.String("command", fmt.Sprintf("0x%04X", commandID)),
		zap.Int("length", len(raw)),
		zap.String("hex", hex.EncodeToString(raw)),
	)
}

// Rejected 记录被拒绝的入站数据
func (c *CommLogger) Rejected(reason string, raw []byte) {
	if c == nil {
		return
	}
	c.zl.Warn("frame rejected",
		zap.String("direction", DirectionIngress),
		zap.String("reason", reason),
		zap.Int("length", len(raw)),
		zap.String("hex", hex.EncodeToString(raw)),
	)
}

// Sync 刷新缓冲
func (c *CommLogger) Sync() error {
	if c == nil {
		return nil
	}
	return c.zl.Sync()
}
