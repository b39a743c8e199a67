package redis

import (
	"context"
	"time"

	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/massensors/py-server3/internal/infrastructure/logger"
	"github.com/massensors/py-server3/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// NewClient 创建Redis客户端并测试连接
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrRedisConnectionFailed, "Redis连接测试失败", err)
	}

	logger.WithField("address", cfg.Address).Info("Redis连接初始化成功")
	return client, nil
}

// Close 关闭Redis连接
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return errors.Wrap(errors.ErrRedisOperationFailed, "关闭Redis连接失败", err)
	}
	logger.Info("Redis连接已关闭")
	return nil
}
