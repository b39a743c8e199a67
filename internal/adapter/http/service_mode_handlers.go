package http

import (
	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/sirupsen/logrus"
)

func (h *HandlerContext) serviceModeResponse() ServiceModeResponse {
	status := h.Coordinator.Status()
	return ServiceModeResponse{
		ServiceModeSnapshot: status.ServiceMode,
		SelectedDevice:      status.SelectedDevice,
		ServiceModeDevice:   status.ServiceModeDevice,
	}
}

// HandleServiceModeStatus 服务模式状态
func (h *HandlerContext) HandleServiceModeStatus(c *gin.Context) {
	respondOK(c, "", h.serviceModeResponse())
}

// HandleToggleServiceMode 切换全局服务模式，不绑定设备
func (h *HandlerContext) HandleToggleServiceMode(c *gin.Context) {
	var req ServiceModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求参数错误", err)
		return
	}
	h.Coordinator.ToggleServiceMode(*req.Enabled)
	logger.WithField("enabled", *req.Enabled).Info("服务模式已切换")
	respondOK(c, "", h.serviceModeResponse())
}

// HandleToggleServiceModeForDevice 为选中设备启用或关闭服务模式
func (h *HandlerContext) HandleToggleServiceModeForDevice(c *gin.Context) {
	var req ServiceModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求参数错误", err)
		return
	}

	var (
		deviceID string
		err      error
	)
	if *req.Enabled {
		deviceID, err = h.Coordinator.EnableServiceMode()
	} else {
		deviceID, err = h.Coordinator.DisableServiceMode()
	}
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"deviceId": deviceID,
		"enabled":  *req.Enabled,
	}).Info("设备服务模式已切换")
	respondOK(c, "", h.serviceModeResponse())
}
