package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Hara602/reconnectGuru/internal/filter"
)

// State 监控器生命周期状态
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopRequested
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	default:
		return "unknown"
	}
}

// stopWait 等事件循环退出的上限,超时只告警不硬卡
const stopWait = 5 * time.Second

// Dispatcher 匹配到已知打印机后接手后续的连接动作
type Dispatcher interface {
	Schedule(ctx context.Context, deviceNode string, delay time.Duration)
}

// Monitor 监听 USB 串口热插拔,识别已知打印机并把连接动作交给 dispatcher
// 同一时刻最多一个事件循环,Start/Stop 可反复调用
type Monitor struct {
	log        *zap.Logger
	source     Source
	dispatcher Dispatcher
	delay      time.Duration

	mu      sync.Mutex
	state   State
	filters *filter.Set
	cancel  context.CancelFunc
	done    chan struct{}
}

// New 创建监控器,delay 是识别到打印机后的稳定等待时长
func New(source Source, dispatcher Dispatcher, filters *filter.Set, delay time.Duration, log *zap.Logger) *Monitor {
	return &Monitor{
		log:        log,
		source:     source,
		dispatcher: dispatcher,
		filters:    filters,
		delay:      delay,
	}
}

// State 当前生命周期状态
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Filters 当前生效的过滤器
func (m *Monitor) Filters() *filter.Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// SetFilters 原子替换过滤器,对后续事件立即生效,不用重启监控
func (m *Monitor) SetFilters(f *filter.Set) {
	m.mu.Lock()
	m.filters = f
	m.mu.Unlock()
	m.log.Info("device filters updated", zap.String("filters", f.String()))
}

// Start 启动事件循环
// 已经在跑时记一条告警然后什么都不做
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.state != StateStopped {
		state := m.state
		m.mu.Unlock()
		m.log.Warn("monitor already active, ignoring start", zap.String("state", state.String()))
		return nil
	}
	m.state = StateStarting
	m.mu.Unlock()

	events, errs, err := m.source.Start()
	if err != nil {
		m.mu.Lock()
		m.state = StateStopped
		m.mu.Unlock()
		return fmt.Errorf("start hotplug source: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	if m.state != StateStarting {
		// 建连接期间有人请求了停止,撤掉刚打开的源,不进入 Running
		m.state = StateStopped
		m.mu.Unlock()
		cancel()
		if err := m.source.Close(); err != nil {
			m.log.Debug("hotplug source close", zap.Error(err))
		}
		m.log.Info("stop requested during startup, monitor stays off")
		return nil
	}
	m.cancel = cancel
	m.done = done
	m.state = StateRunning
	m.mu.Unlock()

	m.log.Info("👀 usb hotplug monitor started",
		zap.String("filters", m.Filters().String()),
		zap.Duration("connect_delay", m.delay))

	go m.run(ctx, events, errs, done)
	return nil
}

// Stop 请求停止并等事件循环退出,对已停止的监控器是 no-op
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state != StateRunning && m.state != StateStarting {
		m.mu.Unlock()
		return
	}
	if m.cancel == nil {
		// Start 还在建连接,记下停止请求,Start 提交 Running 前会检查
		m.state = StateStopRequested
		m.mu.Unlock()
		return
	}
	m.state = StateStopRequested
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	// 取消共享上下文:事件循环、延迟中的连接任务都会看到
	cancel()
	if err := m.source.Close(); err != nil {
		m.log.Debug("hotplug source close", zap.Error(err))
	}

	select {
	case <-done:
	case <-time.After(stopWait):
		m.log.Warn("monitor loop did not exit in time")
	}

	m.mu.Lock()
	m.state = StateStopped
	m.mu.Unlock()
	m.log.Info("usb hotplug monitor stopped")
}

func (m *Monitor) run(ctx context.Context, events <-chan Notification, errs <-chan error, done chan struct{}) {
	defer close(done)
	defer func() {
		// 正常停止走 Stop 收尾;这里兜住事件源意外断掉的情况
		m.mu.Lock()
		if m.state == StateRunning {
			m.state = StateStopped
		}
		m.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			// 底层噪声不致命,记录之后继续收事件
			m.log.Debug("hotplug source error", zap.Error(err))

		case n, ok := <-events:
			if !ok {
				m.log.Warn("hotplug source closed unexpectedly")
				return
			}
			// 停止请求后到达的通知直接丢弃
			if ctx.Err() != nil {
				return
			}
			m.handle(ctx, n)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, n Notification) {
	if n.Action == "remove" {
		if event, ok := Normalize(n); ok {
			m.log.Debug("tty device removed", zap.String("device", event.DeviceNode))
		}
		return
	}
	if n.Action != "add" {
		return
	}

	event, ok := Normalize(n)
	if !ok {
		return
	}
	m.log.Debug("tty device added",
		zap.String("device", event.DeviceNode),
		zap.String("vendor", event.VendorID),
		zap.String("product", event.ProductID),
		zap.String("serial", event.SerialNumber),
		zap.String("port", event.Port))

	matched, reason := m.Filters().Matches(event.VendorID, event.ProductID, event.SerialNumber, event.Port)
	if !matched {
		m.log.Debug("device ignored", zap.String("device", event.DeviceNode), zap.String("reason", reason))
		return
	}

	m.log.Info("✅ known printer detected",
		zap.String("device", event.DeviceNode),
		zap.String("vendor", event.VendorID),
		zap.String("product", event.ProductID),
		zap.String("serial", event.SerialNumber),
		zap.String("port", event.Port))

	// 每次匹配独立调度,互不等待;ctx 取消时任务自己放弃
	m.dispatcher.Schedule(ctx, event.DeviceNode, m.delay)
}
