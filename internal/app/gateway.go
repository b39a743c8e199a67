package app

import (
	"context"
	"fmt"
	"time"

	httpadapter "github.com/massensors/py-server3/internal/adapter/http"
	"github.com/massensors/py-server3/internal/app/service"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	infraredis "github.com/massensors/py-server3/internal/infrastructure/redis"
	"github.com/massensors/py-server3/internal/ports"
	"github.com/massensors/py-server3/pkg/coordination"
	"github.com/massensors/py-server3/pkg/metrics"
	"github.com/massensors/py-server3/pkg/notification"
	"github.com/massensors/py-server3/pkg/protocol"
	"github.com/massensors/py-server3/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// 存储驱动
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Gateway 网关进程内的全部组件
// 负责按配置装配依赖，并统一启动与关闭
type Gateway struct {
	Config      *config.Config
	Coordinator *coordination.Coordinator
	Repository  storage.Repository
	Dispatcher  *service.CommandDispatcher
	Metrics     *metrics.GatewayMetrics
	Notifier    *notification.WebhookNotifier
	Handlers    *httpadapter.HandlerContext
	HTTPServer  *ports.HTTPServer

	commLog     *logger.CommLogger
	redisClient *redis.Client
}

// NewGateway 按配置创建网关
func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	g := &Gateway{Config: cfg, Metrics: metrics.Global()}

	commLog, err := logger.NewCommLogger(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("初始化通信日志失败: %w", err)
	}
	g.commLog = commLog

	repo, err := g.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	g.Repository = repo

	window := time.Duration(cfg.DeviceActivity.OnlineWindowSeconds) * time.Second
	g.Coordinator = coordination.NewCoordinator(window)

	g.Notifier = notification.NewFromConfig(cfg.Notification)
	g.Notifier.Attach(g.Coordinator)

	codec := protocol.NewCodec(protocol.Keys{
		Key1:       cfg.Protocol.Key1,
		Key2:       cfg.Protocol.Key2,
		Iterations: cfg.Protocol.Iterations,
	})
	g.Dispatcher = service.NewCommandDispatcher(g.Coordinator, g.Repository, codec).
		WithMetrics(g.Metrics).
		WithCommLogger(g.commLog)

	g.Handlers = httpadapter.NewHandlerContext(g.Dispatcher, g.Coordinator, g.Repository, g.Metrics, g.Notifier)
	g.HTTPServer = ports.NewHTTPServer(cfg.HTTPAPIServer, g.Handlers)
	return g, nil
}

func (g *Gateway) openRepository(ctx context.Context) (storage.Repository, error) {
	switch g.Config.Storage.Driver {
	case "", StorageMemory:
		logger.Info("使用内存存储")
		return storage.NewMemoryRepository(), nil
	case StorageRedis:
		client, err := infraredis.NewClient(ctx, g.Config.Redis)
		if err != nil {
			return nil, err
		}
		g.redisClient = client
		logger.WithField("prefix", g.Config.Redis.KeyPrefix).Info("使用Redis存储")
		return infraredis.NewRepository(client, g.Config.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("未知存储驱动: %s", g.Config.Storage.Driver)
	}
}

// Run 启动HTTP服务并阻塞到ctx取消或服务异常退出
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.HTTPServer.Start()
	}()

	logger.WithField("address", g.HTTPServer.Addr()).Info("积算仪协议网关启动完成，等待设备请求...")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP服务器异常退出: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Shutdown 依次关闭HTTP服务、事件推送、通信日志与Redis连接
func (g *Gateway) Shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g.HTTPServer != nil {
		keep(g.HTTPServer.Stop(ctx))
	}
	if err := g.Notifier.Wait(ctx); err != nil {
		logger.WithError(err).Warn("等待事件推送完成超时")
	}
	if g.commLog != nil {
		_ = g.commLog.Sync()
	}
	keep(infraredis.Close(g.redisClient))

	logger.Info("积算仪协议网关已安全关闭")
	return firstErr
}
