package http

import (
	"github.com/gin-gonic/gin"
	"github.com/massensors/py-server3/pkg/constants"
)

// RegisterRoutes 注册全部路由
func RegisterRoutes(r *gin.Engine, h *HandlerContext) {
	r.GET("/health", h.HandleHealthCheck)

	commands := r.Group(constants.CommandsGroup)
	{
		commands.POST("/analyze", h.HandleAnalyze)
	}

	selection := r.Group(constants.DeviceSelectionGroup)
	{
		selection.POST("/select", h.HandleSelectDevice)
		selection.GET("/current", h.HandleCurrentSelection)
		selection.DELETE("/clear", h.HandleClearSelection)
	}

	serviceMode := r.Group(constants.ServiceModeGroup)
	{
		serviceMode.GET("/status", h.HandleServiceModeStatus)
		serviceMode.POST("/toggle", h.HandleToggleServiceMode)
		serviceMode.POST("/toggle-for-device", h.HandleToggleServiceModeForDevice)
	}

	readings := r.Group(constants.DynamicReadingsGroup)
	{
		readings.GET("/readings", h.HandleReadings)
		readings.POST("/activate", h.HandleActivateReadings)
		readings.POST("/deactivate", h.HandleDeactivateReadings)
		readings.GET("/stream", h.HandleReadingsStream)
	}

	app := r.Group(constants.ApplicationGroup)
	{
		app.POST("/service-parameter", h.HandleServiceParameter)
		app.GET("/devices/:device_id/parameters", h.HandleDeviceParameters)
		app.GET("/devices/:device_id/parameters/:address", h.HandleParameter)
		app.PUT("/devices/:device_id/parameters/:address", h.HandleUpdateParameter)
		app.GET("/parameter-addresses", h.HandleParameterAddresses)
	}

	machine := r.Group(constants.MachineStateGroup)
	{
		machine.GET("/status", h.HandleMachineStateStatus)
		machine.GET("/variables", h.HandleMachineStateVariables)
		machine.GET("/state-definitions", h.HandleStateDefinitions)
	}

	r.GET(constants.DevicesGroup+"/activity", h.HandleDeviceActivity)

	api := r.Group(constants.APIPrefixV1)
	{
		api.GET("/system/metrics", h.HandleSystemMetrics)
	}
}
