package main

import (
	"os"

	"github.com/massensors/py-server3/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "configs/gateway.yaml"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "积算仪协议网关",
	Long: `积算仪协议网关 - 处理积算仪设备上送的二进制帧。

子命令:
  serve    启动HTTP网关
  decode   解析一帧十六进制数据
  encode   按参数构建一帧设备上行数据
  config   输出生效的配置`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "配置文件路径")
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

// configPath 未显式指定且默认文件不存在时只使用默认值与环境变量
func configPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("config") {
		return configFile
	}
	if _, err := os.Stat(configFile); err != nil {
		return ""
	}
	return configFile
}

func readConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Read(configPath(cmd))
}
