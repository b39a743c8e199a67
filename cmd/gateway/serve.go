package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/massensors/py-server3/internal/app"
	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP网关",
	Long: `加载配置并启动HTTP网关，收到SIGINT或SIGTERM后优雅关闭。

存储驱动由 storage.driver 决定（memory 或 redis）。`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "优雅关闭的最长等待时间")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := config.Load(configPath(cmd)); err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}
	cfg := config.GetConfig()

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	logger.Info("积算仪协议网关启动中...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := app.NewGateway(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("初始化网关失败")
		return err
	}

	runErr := gw.Run(ctx)
	if runErr != nil {
		logger.WithError(runErr).Error("网关运行异常")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("关闭网关失败")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
