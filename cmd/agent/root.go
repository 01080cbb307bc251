package main

import (
	"github.com/spf13/cobra"

	"github.com/Hara602/reconnectGuru/internal/settings"
)

// Version 构建时用 -ldflags "-X main.Version=..." 注入
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reconnect-guru",
	Short: "USB serial printer auto-reconnect agent",
	Long: `reconnectGuru 盯着 udev 热插拔事件,认出配置过的打印机串口后
替 OctoPrint 发起连接,打印机断电重启不用再手动点 Connect。`,
	Version:      Version,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: reconnect-guru.yaml in /etc/reconnect-guru, ~/.config/reconnect-guru or .)")
}

// loadSettings 子命令共用的设置加载入口
func loadSettings() (*settings.Store, error) {
	store := settings.NewStore()
	if err := store.Load(cfgFile); err != nil {
		return nil, err
	}
	return store, nil
}
