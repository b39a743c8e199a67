package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/internal/app/service"
)

func parseAddress(c *gin.Context) (byte, bool) {
	addr, err := strconv.Atoi(c.Param("address"))
	if err != nil || addr < 0 || addr > 0xFF {
		badRequest(c, "参数地址无效", err)
		return 0, false
	}
	return byte(addr), true
}

// HandleServiceParameter 按完整请求更新服务参数
func (h *HandlerContext) HandleServiceParameter(c *gin.Context) {
	var req ServiceParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求参数错误", err)
		return
	}
	if *req.ParamAddress < 0 || *req.ParamAddress > 0xFF {
		badRequest(c, "参数地址无效", nil)
		return
	}

	upd, err := h.Parameters.UpdateParameter(c.Request.Context(), req.DeviceID, byte(*req.ParamAddress), req.ParamData)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "参数 "+upd.Name+" 已更新", upd)
}

// HandleDeviceParameters 设备全部参数
func (h *HandlerContext) HandleDeviceParameters(c *gin.Context) {
	deviceID := c.Param("device_id")
	values, err := h.Parameters.DeviceParameters(c.Request.Context(), deviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", DeviceParametersResponse{DeviceID: deviceID, Parameters: values})
}

// HandleParameter 设备单个参数
func (h *HandlerContext) HandleParameter(c *gin.Context) {
	addr, ok := parseAddress(c)
	if !ok {
		return
	}
	value, err := h.Parameters.Parameter(c.Request.Context(), c.Param("device_id"), addr)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "", value)
}

// HandleUpdateParameter 更新设备单个参数
func (h *HandlerContext) HandleUpdateParameter(c *gin.Context) {
	addr, ok := parseAddress(c)
	if !ok {
		return
	}
	var req UpdateParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求参数错误", err)
		return
	}

	upd, err := h.Parameters.UpdateParameter(c.Request.Context(), c.Param("device_id"), addr, req.ParamData)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "参数 "+upd.Name+" 已更新", upd)
}

// HandleParameterAddresses 参数地址映射表
func (h *HandlerContext) HandleParameterAddresses(c *gin.Context) {
	respondOK(c, "", service.ParameterAddresses())
}
