package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/massensors/py-server3/internal/domain/integrator_protocol"
	"github.com/massensors/py-server3/pkg/errors"
)

func TestMemoryRepository_Measurements(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.LatestMeasurement(ctx, "DEV1"); !errors.IsErrCode(err, errors.ErrDeviceNotFound) {
		t.Fatalf("期望设备不存在错误，实际为 %v", err)
	}

	for i := 0; i < 3; i++ {
		err := repo.SaveMeasurement(ctx, Measurement{DeviceID: "DEV1", Total: fmt.Sprintf("%d", i)})
		if err != nil {
			t.Fatalf("保存失败: %v", err)
		}
	}

	m, err := repo.LatestMeasurement(ctx, "DEV1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if m.Total != "2" {
		t.Errorf("期望最新记录Total为2，实际为%s", m.Total)
	}
	if m.ID == "" || m.ReceivedAt.IsZero() {
		t.Error("应自动填充ID与接收时间")
	}
}

func TestMemoryRepository_HistoryLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	repo.history = 5

	for i := 0; i < 12; i++ {
		_ = repo.SaveMeasurement(ctx, Measurement{DeviceID: "DEV1", Total: fmt.Sprintf("%d", i)})
	}
	if n := repo.MeasurementCount("DEV1"); n != 5 {
		t.Errorf("期望保留5条，实际为%d", n)
	}
}

func TestMemoryRepository_UpsertAlias(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_ = repo.UpsertAlias(ctx, Alias{DeviceID: "B", Company: "ACME"})
	_ = repo.UpsertAlias(ctx, Alias{DeviceID: "A", Company: "Old"})
	_ = repo.UpsertAlias(ctx, Alias{DeviceID: "A", Company: "New"})

	a, err := repo.Alias(ctx, "A")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if a.Company != "New" {
		t.Errorf("期望更新为New，实际为%s", a.Company)
	}

	list, _ := repo.ListAliases(ctx)
	if len(list) != 2 || list[0].DeviceID != "A" {
		t.Errorf("别名列表错误: %+v", list)
	}
}

func TestMemoryRepository_StaticParams(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.LatestStaticParams(ctx, "A"); !errors.IsErrCode(err, errors.ErrDeviceNotFound) {
		t.Fatalf("期望设备不存在错误，实际为 %v", err)
	}

	_ = repo.UpsertStaticParams(ctx, "A", integrator_protocol.StaticParams{Trimm: "1.0"})
	_ = repo.UpsertStaticParams(ctx, "A", integrator_protocol.StaticParams{Trimm: "2.0"})

	rec, err := repo.LatestStaticParams(ctx, "A")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if rec.Params.Trimm != "2.0" {
		t.Errorf("期望Trimm为2.0，实际为%s", rec.Params.Trimm)
	}
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryRepository()
	err := repo.SaveMeasurement(ctx, Measurement{DeviceID: "A"})
	if !errors.IsErrCode(err, errors.ErrRepositoryFailure) {
		t.Errorf("期望存储失败错误，实际为 %v", err)
	}
}

func TestMemoryRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("DEV%d", i%4)
			_ = repo.SaveMeasurement(ctx, Measurement{DeviceID: id})
			_ = repo.UpsertAlias(ctx, Alias{DeviceID: id})
			_, _ = repo.LatestMeasurement(ctx, id)
		}(i)
	}
	wg.Wait()

	list, _ := repo.ListAliases(ctx)
	if len(list) != 4 {
		t.Errorf("期望4个别名，实际为%d", len(list))
	}
}
