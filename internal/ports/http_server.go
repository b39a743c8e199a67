package ports

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpadapter "github.com/massensors/py-server3/internal/adapter/http"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/sirupsen/logrus"
)

// HTTPServer 基于Gin的HTTP服务器，承载设备入口与管理接口
type HTTPServer struct {
	server *http.Server
	router *gin.Engine
}

// NewHTTPServer 创建HTTP服务器
func NewHTTPServer(cfg config.HTTPAPIServerConfig, handlers *httpadapter.HandlerContext) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	httpadapter.RegisterRoutes(router, handlers)

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.FormatHTTPAddress(cfg),
			Handler:      router,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			IdleTimeout:  4 * timeout,
		},
		router: router,
	}
}

// corsMiddleware CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Router 返回路由，用于测试
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}

// Addr 监听地址
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start 启动HTTP服务器，阻塞直到服务器关闭
// 通过Stop正常关闭时返回nil
func (s *HTTPServer) Start() error {
	logger.WithFields(logrus.Fields{
		"component": "http_server",
		"address":   s.server.Addr,
	}).Info("启动HTTP服务器")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 停止HTTP服务器
func (s *HTTPServer) Stop(ctx context.Context) error {
	logger.WithField("component", "http_server").Info("停止HTTP服务器")
	return s.server.Shutdown(ctx)
}
