package controller

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Hara602/reconnectGuru/internal/filter"
	"github.com/Hara602/reconnectGuru/internal/model"
	"github.com/Hara602/reconnectGuru/internal/settings"
)

// Monitor 控制器需要的监控器操作面
type Monitor interface {
	Start() error
	Stop()
	SetFilters(*filter.Set)
}

// SettingsSource 当前设置的来源
type SettingsSource interface {
	Snapshot() settings.Settings
}

// Controller 对应代理的三个时机:启动、关停、设置保存
// 把设置翻译成监控器动作,自己不碰串口也不碰宿主
type Controller struct {
	log     *zap.Logger
	store   SettingsSource
	monitor Monitor
}

// New 创建控制器
func New(store SettingsSource, monitor Monitor, log *zap.Logger) *Controller {
	return &Controller{log: log, store: store, monitor: monitor}
}

// FiltersFrom 由设置构建设备过滤器
func FiltersFrom(cfg settings.Settings) *filter.Set {
	return filter.New(cfg.FilterVendorID, cfg.FilterProductID, cfg.FilterSerial, cfg.FilterPort)
}

// Startup 代理启动:打印生效设置,enabled 时拉起监控
func (c *Controller) Startup() error {
	cfg := c.store.Snapshot()
	c.logSettings(cfg)

	if !cfg.Enabled {
		c.log.Info("auto-connect disabled in settings, monitor stays off")
		return nil
	}
	if err := c.monitor.Start(); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	return nil
}

// Shutdown 代理退出:停监控
func (c *Controller) Shutdown() {
	c.log.Info("shutting down")
	c.monitor.Stop()
}

// SettingsSaved 配置文件保存后的回调:打印新设置,重建过滤器换进监控器
// enabled 和延迟的变化要等下次重启才生效
func (c *Controller) SettingsSaved(cfg settings.Settings) {
	c.log.Info("settings saved, refreshing filters")
	c.logSettings(cfg)
	c.monitor.SetFilters(FiltersFrom(cfg))
}

// HostEvent 宿主生命周期事件,只做观察记录
func (c *Controller) HostEvent(ev model.LifecycleEvent) {
	switch ev {
	case model.PrinterConnected:
		c.log.Info("🖨️ host reports printer connected")
	case model.PrinterDisconnected:
		c.log.Info("host reports printer disconnected")
	case model.PrinterError:
		c.log.Warn("🚨 host reports printer error")
	}
}

func (c *Controller) logSettings(cfg settings.Settings) {
	c.log.Info("⚙️ effective settings",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("connect_delay_seconds", cfg.ConnectDelaySeconds),
		zap.String("filters", FiltersFrom(cfg).String()),
		zap.Bool("message_on_connect", cfg.MessageOnConnect),
		zap.Int("serial_baudrate", cfg.SerialBaudRate),
		zap.String("octoprint_url", cfg.OctoPrintURL),
		zap.Int("poll_interval_seconds", cfg.PollIntervalSeconds))
}
