package http

import (
	"time"

	"github.com/massensors/py-server3/internal/app/service"
	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/metrics"
	"github.com/massensors/py-server3/pkg/notification"
	"github.com/massensors/py-server3/pkg/storage"
)

// HandlerContext HTTP处理器上下文
// 包含处理器需要的所有依赖，通过依赖注入提供
type HandlerContext struct {
	Dispatcher  *service.CommandDispatcher
	Parameters  *service.ParameterService
	Coordinator *coordination.Coordinator
	Repository  storage.Repository
	Metrics     *metrics.GatewayMetrics
	Notifier    *notification.WebhookNotifier // 可为nil

	Version   string
	startedAt time.Time
}

// NewHandlerContext 创建处理器上下文
func NewHandlerContext(
	dispatcher *service.CommandDispatcher,
	coord *coordination.Coordinator,
	repo storage.Repository,
	m *metrics.GatewayMetrics,
	notifier *notification.WebhookNotifier,
) *HandlerContext {
	return &HandlerContext{
		Dispatcher:  dispatcher,
		Parameters:  service.NewParameterService(repo, coord),
		Coordinator: coord,
		Repository:  repo,
		Metrics:     m,
		Notifier:    notifier,
		Version:     "1.0.0",
		startedAt:   time.Now(),
	}
}
