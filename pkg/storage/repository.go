package storage

import (
	"context"
	"time"

	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
)

// 存储驱动名称
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Measurement 测量记录
type Measurement struct {
	ID          string    `json:"id" cbor:"id"`
	DeviceID    string    `json:"deviceId" cbor:"deviceId"`
	Speed       string    `json:"speed" cbor:"speed"`
	Rate        string    `json:"rate" cbor:"rate"`
	Total       string    `json:"total" cbor:"total"`
	CurrentTime string    `json:"currentTime" cbor:"currentTime"`
	ReceivedAt  time.Time `json:"receivedAt" cbor:"receivedAt"`
}

// Alias 设备别名记录，每台设备一条
type Alias struct {
	DeviceID    string    `json:"deviceId" cbor:"deviceId"`
	Company     string    `json:"company" cbor:"company"`
	Location    string    `json:"location" cbor:"location"`
	ProductName string    `json:"productName" cbor:"productName"`
	ScaleID     string    `json:"scaleId" cbor:"scaleId"`
	UpdatedAt   time.Time `json:"updatedAt" cbor:"updatedAt"`
}

// StaticParamsRecord 设备静态参数记录，每台设备一条
type StaticParamsRecord struct {
	DeviceID  string                           `json:"deviceId" cbor:"deviceId"`
	Params    integrator_protocol.StaticParams `json:"params" cbor:"params"`
	UpdatedAt time.Time                        `json:"updatedAt" cbor:"updatedAt"`
}

// Repository 调度器使用的持久化接口
// 查询不到记录时返回 ErrDeviceNotFound，其它失败返回 ErrRepositoryFailure
type Repository interface {
	SaveMeasurement(ctx context.Context, m Measurement) error
	UpsertAlias(ctx context.Context, a Alias) error
	UpsertStaticParams(ctx context.Context, deviceID string, params integrator_protocol.StaticParams) error
	LatestStaticParams(ctx context.Context, deviceID string) (*StaticParamsRecord, error)

	LatestMeasurement(ctx context.Context, deviceID string) (*Measurement, error)
	Alias(ctx context.Context, deviceID string) (*Alias, error)
	ListAliases(ctx context.Context) ([]Alias, error)
}
