package config

import (
	"fmt"
	"strings"

	"github.com/massensors/py-server3/pkg/constants"
	"github.com/spf13/viper"
)

// Config 是应用程序配置的结构体
type Config struct {
	HTTPAPIServer  HTTPAPIServerConfig  `mapstructure:"httpApiServer" yaml:"httpApiServer"`
	Protocol       ProtocolConfig       `mapstructure:"protocol" yaml:"protocol"`
	Storage        StorageConfig        `mapstructure:"storage" yaml:"storage"`
	Redis          RedisConfig          `mapstructure:"redis" yaml:"redis"`
	Logger         LoggerConfig         `mapstructure:"logger" yaml:"logger"`
	DeviceActivity DeviceActivityConfig `mapstructure:"deviceActivity" yaml:"deviceActivity"`
	Notification   NotificationConfig   `mapstructure:"notification" yaml:"notification"`
}

// HTTPAPIServerConfig HTTP API服务器配置
type HTTPAPIServerConfig struct {
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// ProtocolConfig 帧加密参数
type ProtocolConfig struct {
	Key1       string `mapstructure:"key1" yaml:"key1"`
	Key2       string `mapstructure:"key2" yaml:"key2"`
	Iterations int    `mapstructure:"iterations" yaml:"iterations"`
}

// StorageConfig 存储驱动配置
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // memory | redis
}

// RedisConfig Redis配置
type RedisConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Password     string `mapstructure:"password" yaml:"password"`
	DB           int    `mapstructure:"db" yaml:"db"`
	PoolSize     int    `mapstructure:"poolSize" yaml:"poolSize"`
	MinIdleConns int    `mapstructure:"minIdleConns" yaml:"minIdleConns"`
	DialTimeout  int    `mapstructure:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  int    `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout int    `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	KeyPrefix    string `mapstructure:"keyPrefix" yaml:"keyPrefix"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`
	Format        string `mapstructure:"format" yaml:"format"`
	FilePath      string `mapstructure:"filePath" yaml:"filePath"`
	MaxSizeMB     int    `mapstructure:"maxSizeMB" yaml:"maxSizeMB"`
	MaxBackups    int    `mapstructure:"maxBackups" yaml:"maxBackups"`
	MaxAgeDays    int    `mapstructure:"maxAgeDays" yaml:"maxAgeDays"`
	Compress      bool   `mapstructure:"compress" yaml:"compress"`
	LogHexDump    bool   `mapstructure:"logHexDump" yaml:"logHexDump"`
	EnableConsole bool   `mapstructure:"enableConsole" yaml:"enableConsole"`
	CommLogPath   string `mapstructure:"commLogPath" yaml:"commLogPath"`
}

// DeviceActivityConfig 设备在线判定配置
type DeviceActivityConfig struct {
	OnlineWindowSeconds int `mapstructure:"onlineWindowSeconds" yaml:"onlineWindowSeconds"`
}

// NotificationConfig 事件推送配置
type NotificationConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoints      []string `mapstructure:"endpoints" yaml:"endpoints"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// 全局配置实例
var GlobalConfig Config

// setDefaults 设置默认值，配置文件与环境变量可覆盖
func setDefaults(v *viper.Viper) {
	v.SetDefault("httpApiServer.host", "0.0.0.0")
	v.SetDefault("httpApiServer.port", 8000)
	v.SetDefault("httpApiServer.timeoutSeconds", 30)

	v.SetDefault("protocol.key1", constants.DefaultKey1)
	v.SetDefault("protocol.key2", constants.DefaultKey2)
	v.SetDefault("protocol.iterations", constants.DefaultIterations)

	v.SetDefault("storage.driver", "memory")

	v.SetDefault("redis.address", "127.0.0.1:6379")
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", 5)
	v.SetDefault("redis.readTimeout", 3)
	v.SetDefault("redis.writeTimeout", 3)
	v.SetDefault("redis.keyPrefix", "integrator:")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.maxSizeMB", 100)
	v.SetDefault("logger.maxBackups", 5)
	v.SetDefault("logger.maxAgeDays", 30)
	v.SetDefault("logger.enableConsole", true)

	v.SetDefault("deviceActivity.onlineWindowSeconds", constants.DefaultOnlineWindowSeconds)

	v.SetDefault("notification.timeoutSeconds", 5)
}

// Load 加载配置文件；configPath为空时仅使用默认值与环境变量
func Load(configPath string) error {
	cfg, err := Read(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = *cfg
	return nil
}

// Read 读取配置但不修改全局实例
func Read(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return &GlobalConfig
}

// FormatHTTPAddress 格式化HTTP服务器地址为host:port格式
func FormatHTTPAddress(cfg HTTPAPIServerConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
