package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hara602/reconnectGuru/internal/controller"
	"github.com/Hara602/reconnectGuru/internal/octoprint"
	"github.com/Hara602/reconnectGuru/internal/reconnect"
	"github.com/Hara602/reconnectGuru/internal/sysutil"
	"github.com/Hara602/reconnectGuru/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "启动热插拔监控代理",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadSettings()
		if err != nil {
			return err
		}
		cfg := store.Snapshot()

		// 初始化日志
		sysutil.InitLogger(cfg.LogLevel, cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		defer sysutil.Log.Sync()
		log := sysutil.Log

		log.Info("🔌 reconnectGuru agent starting", zap.String("version", Version))
		if file := store.ConfigFile(); file != "" {
			log.Info("using config file", zap.String("path", file))
		}
		// 监听 udev 的 netlink 组一般要 root
		if os.Geteuid() != 0 {
			log.Warn("not running as root, hotplug monitoring may fail")
		}

		// 组装核心模块 (依赖注入)
		client := octoprint.NewClient(cfg.OctoPrintURL, cfg.OctoPrintAPIKey)
		reconnector := reconnect.New(client, store, log)
		monitor := watcher.New(watcher.NewSource(), reconnector,
			controller.FiltersFrom(cfg), cfg.ConnectDelay(), log)
		ctrl := controller.New(store, monitor, log)

		if err := ctrl.Startup(); err != nil {
			return err
		}
		defer ctrl.Shutdown()

		// 配置文件保存后热替换过滤器
		store.Watch(ctrl.SettingsSaved)

		// 宿主状态轮询,拿回 CONNECTED/DISCONNECTED/ERROR
		pollCtx, cancelPoll := context.WithCancel(context.Background())
		defer cancelPoll()
		poller := octoprint.NewPoller(client, cfg.PollInterval(), log)
		go poller.Run(pollCtx)

		// 捕获操作系统信号,优雅关闭
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		events := poller.Events()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				ctrl.HostEvent(ev)

			case sig := <-sigCh:
				log.Info("signal received, shutting down", zap.String("signal", sig.String()))
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
