package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleHealthCheck 健康检查
func (h *HandlerContext) HandleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.Version,
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

// HandleSystemMetrics 协议处理与通知指标
func (h *HandlerContext) HandleSystemMetrics(c *gin.Context) {
	respondOK(c, "", SystemMetricsResponse{
		Protocol:     h.Metrics.Snapshot(),
		Notification: h.Notifier.Stats(),
		Subscribers:  h.Coordinator.Readings.SubscriberCount(),
	})
}
