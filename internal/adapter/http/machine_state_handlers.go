package http

import (
	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/pkg/coordination"
)

// HandleMachineStateStatus 观察到的机器状态
func (h *HandlerContext) HandleMachineStateStatus(c *gin.Context) {
	respondOK(c, "", h.Coordinator.Machine.Info())
}

// HandleMachineStateVariables 状态变量
func (h *HandlerContext) HandleMachineStateVariables(c *gin.Context) {
	respondOK(c, "", h.Coordinator.Machine.Variables())
}

// HandleStateDefinitions 状态表
func (h *HandlerContext) HandleStateDefinitions(c *gin.Context) {
	respondOK(c, "", coordination.StateDefinitions())
}
