package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/pkg/errors"
)

// DefaultMeasurementHistory 内存驱动每台设备保留的测量记录条数
const DefaultMeasurementHistory = 1000

// MemoryRepository 内存存储，默认驱动，同时用作测试替身
type MemoryRepository struct {
	mu           sync.RWMutex
	measurements map[string][]Measurement
	aliases      map[string]Alias
	statics      map[string]StaticParamsRecord
	history      int
	now          func() time.Time
}

// NewMemoryRepository 创建内存存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		measurements: make(map[string][]Measurement),
		aliases:      make(map[string]Alias),
		statics:      make(map[string]StaticParamsRecord),
		history:      DefaultMeasurementHistory,
		now:          time.Now,
	}
}

// SaveMeasurement 追加测量记录，超出保留条数时丢弃最旧记录
func (r *MemoryRepository) SaveMeasurement(ctx context.Context, m Measurement) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存测量数据失败", err)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.measurements[m.DeviceID], m)
	if len(list) > r.history {
		list = list[len(list)-r.history:]
	}
	r.measurements[m.DeviceID] = list
	return nil
}

// UpsertAlias 存在则更新，否则插入
func (r *MemoryRepository) UpsertAlias(ctx context.Context, a Alias) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存别名失败", err)
	}
	a.UpdatedAt = r.now()

	r.mu.Lock()
	r.aliases[a.DeviceID] = a
	r.mu.Unlock()
	return nil
}

// UpsertStaticParams 存在则更新，否则插入
func (r *MemoryRepository) UpsertStaticParams(ctx context.Context, deviceID string, params integrator_protocol.StaticParams) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存静态参数失败", err)
	}

	r.mu.Lock()
	r.statics[deviceID] = StaticParamsRecord{DeviceID: deviceID, Params: params, UpdatedAt: r.now()}
	r.mu.Unlock()
	return nil
}

// LatestStaticParams 返回设备最新静态参数
func (r *MemoryRepository) LatestStaticParams(ctx context.Context, deviceID string) (*StaticParamsRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.statics[deviceID]
	if !ok {
		return nil, errors.Newf(errors.ErrDeviceNotFound, "设备 %s 无静态参数", deviceID)
	}
	return &rec, nil
}

// LatestMeasurement 返回设备最新测量记录
func (r *MemoryRepository) LatestMeasurement(ctx context.Context, deviceID string) (*Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.measurements[deviceID]
	if len(list) == 0 {
		return nil, errors.Newf(errors.ErrDeviceNotFound, "设备 %s 无测量数据", deviceID)
	}
	m := list[len(list)-1]
	return &m, nil
}

// Alias 返回设备别名
func (r *MemoryRepository) Alias(ctx context.Context, deviceID string) (*Alias, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aliases[deviceID]
	if !ok {
		return nil, errors.Newf(errors.ErrDeviceNotFound, "设备 %s 无别名", deviceID)
	}
	return &a, nil
}

// ListAliases 返回全部别名，按设备ID排序
func (r *MemoryRepository) ListAliases(ctx context.Context) ([]Alias, error) {
	r.mu.RLock()
	list := make([]Alias, 0, len(r.aliases))
	for _, a := range r.aliases {
		list = append(list, a)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].DeviceID < list[j].DeviceID })
	return list, nil
}

// MeasurementCount 设备已保存的测量条数
func (r *MemoryRepository) MeasurementCount(deviceID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.measurements[deviceID])
}
