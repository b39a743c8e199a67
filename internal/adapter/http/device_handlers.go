package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HandleSelectDevice 选择当前工作设备
func (h *HandlerContext) HandleSelectDevice(c *gin.Context) {
	var req DeviceSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求参数错误", err)
		return
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		badRequest(c, "设备ID不能为空", nil)
		return
	}

	sel := h.Coordinator.SelectDevice(deviceID)
	logger.WithFields(logrus.Fields{
		"deviceId":         deviceID,
		"previous":         sel.PreviousDeviceID,
		"disableScheduled": sel.DisableScheduled,
	}).Info("已选择设备")

	info, exists, err := h.lookupDevice(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "已选择设备: "+deviceID, DeviceSelectionResponse{
		SelectedDeviceID:  deviceID,
		PreviousDeviceID:  sel.PreviousDeviceID,
		DeviceExists:      exists,
		DisableScheduled:  sel.DisableScheduled,
		ServiceModeDevice: sel.ServiceModeDevice,
		DeviceInfo:        info,
	})
}

// HandleCurrentSelection 查询当前选中设备
func (h *HandlerContext) HandleCurrentSelection(c *gin.Context) {
	deviceID, ok := h.Coordinator.Devices.Selected()
	if !ok {
		respondError(c, errors.New(errors.ErrNoSelectedDevice, "未选中设备"))
		return
	}
	info, exists, err := h.lookupDevice(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	holder, _ := h.Coordinator.Devices.ServiceModeDevice()
	respondOK(c, "", DeviceSelectionResponse{
		SelectedDeviceID:  deviceID,
		DeviceExists:      exists,
		ServiceModeDevice: holder,
		DeviceInfo:        info,
	})
}

// HandleClearSelection 清除选中设备
func (h *HandlerContext) HandleClearSelection(c *gin.Context) {
	previous := h.Coordinator.ClearSelection()
	respondOK(c, "已清除设备选择", gin.H{"previous_device_id": previous})
}

// HandleDeviceActivity 设备活动状态列表
func (h *HandlerContext) HandleDeviceActivity(c *gin.Context) {
	devices := h.Coordinator.Activity.All()
	online := 0
	for _, d := range devices {
		if d.Online {
			online++
		}
	}
	respondOK(c, "", DeviceActivityResponse{
		Devices:       devices,
		Total:         len(devices),
		Online:        online,
		WindowSeconds: int(h.Coordinator.Activity.Window().Seconds()),
	})
}

// lookupDevice 汇总存储中的设备信息，任何一类记录存在即视为设备存在
func (h *HandlerContext) lookupDevice(ctx context.Context, deviceID string) (*DeviceInfo, bool, error) {
	info := &DeviceInfo{}
	exists := false

	alias, err := h.Repository.Alias(ctx, deviceID)
	switch {
	case err == nil:
		info.Alias, exists = alias, true
	case !errors.IsErrCode(err, errors.ErrDeviceNotFound):
		return nil, false, err
	}

	static, err := h.Repository.LatestStaticParams(ctx, deviceID)
	switch {
	case err == nil:
		info.StaticParams, exists = static, true
	case !errors.IsErrCode(err, errors.ErrDeviceNotFound):
		return nil, false, err
	}

	m, err := h.Repository.LatestMeasurement(ctx, deviceID)
	switch {
	case err == nil:
		info.LatestMeasure, exists = m, true
	case !errors.IsErrCode(err, errors.ErrDeviceNotFound):
		return nil, false, err
	}

	if !exists {
		return nil, false, nil
	}
	return info, true, nil
}
