package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/pkg/constants"
)

// HandleAnalyze 设备入口，接收原始帧并返回回复帧
// 未知命令返回JSON描述而不是回复帧
func (h *HandlerContext) HandleAnalyze(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "读取请求体失败", err)
		return
	}

	res, err := h.Dispatcher.Process(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.Unimplemented {
		c.JSON(http.StatusOK, UnimplementedResponse{
			Command: res.CommandName,
			Status:  constants.StatusNotImplemented,
		})
		return
	}
	c.Data(http.StatusOK, constants.OctetStreamMediaType, res.Reply)
}
