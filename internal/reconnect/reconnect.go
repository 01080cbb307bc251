package reconnect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Hara602/reconnectGuru/internal/octoprint"
	"github.com/Hara602/reconnectGuru/internal/serialport"
	"github.com/Hara602/reconnectGuru/internal/settings"
)

// PrinterClient 连接尝试需要的宿主操作面
type PrinterClient interface {
	Connection(ctx context.Context) (octoprint.ConnectionState, error)
	Connect(ctx context.Context, port, profile string) error
	DefaultProfile(ctx context.Context) (string, error)
	HostBaudRate(ctx context.Context) (int, error)
}

// SettingsSource 每次尝试时实时读取的设置
type SettingsSource interface {
	Snapshot() settings.Settings
}

// PortOpener 串口探测入口
type PortOpener func(device string, opts ...serialport.Option) (serialport.Port, error)

// Reconnector 把识别到的打印机交回宿主:等稳定、查状态、探串口、发起连接
// 每台设备一个独立 goroutine,互不等待
type Reconnector struct {
	log      *zap.Logger
	client   PrinterClient
	settings SettingsSource
	open     PortOpener
}

// New 创建重连器
func New(client PrinterClient, settingsSource SettingsSource, log *zap.Logger) *Reconnector {
	return &Reconnector{
		log:      log,
		client:   client,
		settings: settingsSource,
		open:     serialport.Open,
	}
}

// Schedule 为单台设备安排一次延迟连接,立即返回
// ctx 取消时任务在任何一步都会放弃
func (r *Reconnector) Schedule(ctx context.Context, deviceNode string, delay time.Duration) {
	go r.attempt(ctx, deviceNode, delay)
}

func (r *Reconnector) attempt(ctx context.Context, deviceNode string, delay time.Duration) {
	log := r.log.With(zap.String("device", deviceNode))

	// 1. 等内核把设备枚举稳定
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		log.Debug("connect attempt abandoned before settle", zap.Error(ctx.Err()))
		return
	case <-timer.C:
	}
	// 定时器和取消可能同时到,关停途中不再去碰宿主
	if ctx.Err() != nil {
		log.Debug("connect attempt abandoned", zap.Error(ctx.Err()))
		return
	}

	// 2. 宿主还连着就不打扰
	conn, err := r.client.Connection(ctx)
	if err != nil {
		log.Error("host connection query failed", zap.Error(err))
		return
	}
	if !octoprint.ClosedOrError(conn.State) {
		log.Warn("host already connected, leaving it alone", zap.String("state", conn.State))
		return
	}

	// 3. 探串口,打不开说明设备没就绪或者根本不是打印机
	cfg := r.settings.Snapshot()
	baud := r.baudRate(ctx, cfg)
	port, err := r.open(deviceNode,
		serialport.WithBaudRate(baud),
		serialport.WithReadTimeout(time.Second))
	if err != nil {
		log.Error("serial probe failed, aborting connect", zap.Error(err))
		return
	}

	// 4. 串口探通了,顺手在打印机屏幕上打个招呼;失败不拦着连接
	if cfg.MessageOnConnect {
		if err := writeCourtesy(port, deviceNode); err != nil {
			log.Warn("courtesy message failed", zap.Error(err))
		}
	}
	if err := port.Close(); err != nil && !errors.Is(err, serialport.ErrPortClosed) {
		log.Debug("probe port close", zap.Error(err))
	}

	// 5. 让宿主接管
	profile, err := r.client.DefaultProfile(ctx)
	if err != nil {
		log.Error("default profile lookup failed", zap.Error(err))
		return
	}
	if err := r.client.Connect(ctx, deviceNode, profile); err != nil {
		log.Error("❌ host connect failed", zap.Error(err))
		return
	}
	log.Info("✅ printer handed to host",
		zap.String("profile", profile),
		zap.Int("baudrate", baud))
}

// baudRate 探测用的波特率:宿主设置优先,其次本地配置,最后内置默认
func (r *Reconnector) baudRate(ctx context.Context, cfg settings.Settings) int {
	rate, err := r.client.HostBaudRate(ctx)
	if err != nil {
		r.log.Debug("host baudrate lookup failed", zap.Error(err))
	}
	if err == nil && rate > 0 {
		return rate
	}
	if cfg.SerialBaudRate > 0 {
		return cfg.SerialBaudRate
	}
	return serialport.DefaultBaudRate
}

// courtesyLines 连接前发给打印机的 G-code 问候,G4 的停顿让屏幕来得及刷新
func courtesyLines(deviceNode string) []string {
	return []string{
		"G4 1000",
		"M117 Connecting...",
		"G4 1000",
		"M117 " + deviceNode,
		"G4 1000",
	}
}

func writeCourtesy(port serialport.Port, deviceNode string) error {
	for _, line := range courtesyLines(deviceNode) {
		if _, err := port.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write %q: %w", line, err)
		}
	}
	return nil
}
