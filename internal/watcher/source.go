package watcher

// Notification 底层热插拔源吐出的一条原始通知
type Notification struct {
	Action     string            // add / remove / change ...
	Properties map[string]string // udev 环境键值
}

// Source 热插拔通知源
// Start 建立底层连接并返回投递通道,Close 停止投递并断开,通知通道随之关闭
type Source interface {
	Start() (<-chan Notification, <-chan error, error)
	Close() error
}

// NewSource 平台默认的热插拔通知源
func NewSource() Source {
	return newSource()
}
