//go:build linux

package watcher

import (
	"fmt"

	"github.com/pilebones/go-udev/netlink"
)

// netlinkSource 通过 NETLINK_KOBJECT_UEVENT 接收 udev 处理过的热插拔事件
// 内核侧先按 SUBSYSTEM=tty 过滤,串口之外的设备根本不会进队列
type netlinkSource struct {
	conn *netlink.UEventConn
	quit chan struct{}
	done chan struct{}
}

func newSource() Source {
	return &netlinkSource{}
}

func (s *netlinkSource) Start() (<-chan Notification, <-chan error, error) {
	// 监听 UDEV 事件,连接 NETLINK_KOBJECT_UEVENT
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, nil, fmt.Errorf("connect udev netlink: %w", err)
	}

	matcher := &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{Env: map[string]string{"SUBSYSTEM": "tty"}},
		},
	}
	// 提前编译,Monitor 内部对编译失败的处理不可靠
	if err := matcher.Compile(); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("compile udev rule: %w", err)
	}

	queue := make(chan netlink.UEvent)
	// 留一格缓冲:Monitor 的 goroutine 退出前会往这里发最后一个读错误,
	// 那时泵已经停了,无缓冲会把它永远卡在发送上
	errChan := make(chan error, 1)
	quit := conn.Monitor(queue, errChan, matcher)

	s.conn = conn
	s.quit = quit
	s.done = make(chan struct{})

	events := make(chan Notification, 10)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		for {
			select {
			case <-s.done:
				return
			case uevent := <-queue:
				n := Notification{Action: string(uevent.Action), Properties: uevent.Env}
				select {
				case events <- n:
				case <-s.done:
					return
				}
			case err := <-errChan:
				select {
				case errs <- err:
				default: // 错误通道满了就丢,消费方只当噪声记录
				}
			}
		}
	}()

	return events, errs, nil
}

func (s *netlinkSource) Close() error {
	if s.conn == nil {
		return nil
	}
	// 先给 Monitor 发退出信号,再断开连接
	close(s.quit)
	close(s.done)
	err := s.conn.Close()
	s.conn = nil
	return err
}
