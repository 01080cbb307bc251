package octoprint

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hara602/reconnectGuru/internal/model"
)

// ConnectionSource 轮询所需的最小客户端能力
type ConnectionSource interface {
	Connection(ctx context.Context) (ConnectionState, error)
}

// Poller 周期轮询宿主连接状态,类别变化时发一条生命周期事件
// 独立进程拿不到宿主内部的 CONNECTED/DISCONNECTED/ERROR 回调,只能靠轮询还原
type Poller struct {
	source   ConnectionSource
	interval time.Duration
	log      *zap.Logger
	events   chan model.LifecycleEvent
}

// NewPoller 创建轮询器,interval <= 0 时用 10s
func NewPoller(source ConnectionSource, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		source:   source,
		interval: interval,
		log:      log,
		events:   make(chan model.LifecycleEvent, 8),
	}
}

// Events 生命周期事件流,Run 退出时关闭
func (p *Poller) Events() <-chan model.LifecycleEvent {
	return p.events
}

// Run 阻塞轮询直到 ctx 取消
func (p *Poller) Run(ctx context.Context) {
	defer close(p.events)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := model.LifecycleEvent(-1) // 还没观察到任何状态
	p.poll(ctx, &last)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, &last)
		}
	}
}

func (p *Poller) poll(ctx context.Context, last *model.LifecycleEvent) {
	conn, err := p.source.Connection(ctx)
	if err != nil {
		// 宿主暂时不可达不等于打印机出错,类别保持不变
		p.log.Debug("host poll failed", zap.Error(err))
		return
	}

	class := Classify(conn.State)
	if class == *last {
		return
	}
	*last = class
	p.log.Info("🖨️ printer state changed",
		zap.String("state", conn.State),
		zap.String("class", class.String()),
		zap.String("port", conn.Port))

	select {
	case p.events <- class:
	default:
		p.log.Warn("lifecycle event dropped, consumer too slow")
	}
}

// Classify 宿主状态字符串粗分为三类
func Classify(state string) model.LifecycleEvent {
	switch {
	case strings.HasPrefix(state, "Error") || state == "Offline after error":
		return model.PrinterError
	case state == "" || state == "Closed" || strings.HasPrefix(state, "Offline"):
		return model.PrinterDisconnected
	default:
		return model.PrinterConnected
	}
}
