package redis

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultMeasurementHistory 每台设备保留的测量记录条数
const DefaultMeasurementHistory = 1000

// Repository 基于Redis的存储实现，记录以CBOR编码
//
// 键布局:
//
//	{prefix}measurements:{device}  LIST  最新记录在表头
//	{prefix}alias:{device}         STRING
//	{prefix}aliases                SET   已登记别名的设备ID
//	{prefix}static:{device}        STRING
type Repository struct {
	client  redis.UniversalClient
	prefix  string
	history int64
	now     func() time.Time
}

// NewRepository 创建Redis存储
func NewRepository(client redis.UniversalClient, prefix string) *Repository {
	return &Repository{
		client:  client,
		prefix:  prefix,
		history: DefaultMeasurementHistory,
		now:     time.Now,
	}
}

var _ storage.Repository = (*Repository)(nil)

func (r *Repository) measurementsKey(deviceID string) string {
	return r.prefix + "measurements:" + deviceID
}

func (r *Repository) aliasKey(deviceID string) string {
	return r.prefix + "alias:" + deviceID
}

func (r *Repository) aliasSetKey() string {
	return r.prefix + "aliases"
}

func (r *Repository) staticKey(deviceID string) string {
	return r.prefix + "static:" + deviceID
}

// SaveMeasurement 写入测量记录并裁剪历史
func (r *Repository) SaveMeasurement(ctx context.Context, m storage.Measurement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = r.now()
	}
	data, err := cbor.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "编码测量数据失败", err)
	}

	key := r.measurementsKey(m.DeviceID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.history-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存测量数据失败", err)
	}
	return nil
}

// UpsertAlias 覆盖写入别名
func (r *Repository) UpsertAlias(ctx context.Context, a storage.Alias) error {
	a.UpdatedAt = r.now()
	data, err := cbor.Marshal(a)
	if err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "编码别名失败", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.aliasKey(a.DeviceID), data, 0)
	pipe.SAdd(ctx, r.aliasSetKey(), a.DeviceID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存别名失败", err)
	}
	return nil
}

// UpsertStaticParams 覆盖写入静态参数
func (r *Repository) UpsertStaticParams(ctx context.Context, deviceID string, params integrator_protocol.StaticParams) error {
	rec := storage.StaticParamsRecord{DeviceID: deviceID, Params: params, UpdatedAt: r.now()}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "编码静态参数失败", err)
	}
	if err := r.client.Set(ctx, r.staticKey(deviceID), data, 0).Err(); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "保存静态参数失败", err)
	}
	return nil
}

// LatestStaticParams 读取设备静态参数
func (r *Repository) LatestStaticParams(ctx context.Context, deviceID string) (*storage.StaticParamsRecord, error) {
	rec := &storage.StaticParamsRecord{}
	if err := r.getRecord(ctx, r.staticKey(deviceID), deviceID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestMeasurement 读取设备最新测量记录
func (r *Repository) LatestMeasurement(ctx context.Context, deviceID string) (*storage.Measurement, error) {
	data, err := r.client.LIndex(ctx, r.measurementsKey(deviceID), 0).Bytes()
	if err != nil {
		return nil, r.readError(err, deviceID, "读取测量数据失败")
	}
	m := &storage.Measurement{}
	if err := cbor.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(errors.ErrRepositoryFailure, "解码测量数据失败", err)
	}
	return m, nil
}

// Alias 读取设备别名
func (r *Repository) Alias(ctx context.Context, deviceID string) (*storage.Alias, error) {
	a := &storage.Alias{}
	if err := r.getRecord(ctx, r.aliasKey(deviceID), deviceID, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAliases 读取全部别名，按设备ID排序
func (r *Repository) ListAliases(ctx context.Context) ([]storage.Alias, error) {
	ids, err := r.client.SMembers(ctx, r.aliasSetKey()).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrRepositoryFailure, "读取别名列表失败", err)
	}
	sort.Strings(ids)

	list := make([]storage.Alias, 0, len(ids))
	for _, id := range ids {
		a, err := r.Alias(ctx, id)
		if errors.IsErrCode(err, errors.ErrDeviceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, nil
}

func (r *Repository) getRecord(ctx context.Context, key, deviceID string, out interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return r.readError(err, deviceID, "读取记录失败")
	}
	if err := cbor.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrRepositoryFailure, "解码记录失败", err)
	}
	return nil
}

func (r *Repository) readError(err error, deviceID, message string) error {
	if stderrors.Is(err, redis.Nil) {
		return errors.Newf(errors.ErrDeviceNotFound, "设备 %s 无记录", deviceID)
	}
	return errors.Wrap(errors.ErrRepositoryFailure, message, err)
}
