package model

// udev 属性缺失时的占位值,与日志输出保持一致
const (
	UnknownVendor  = "N/A"
	UnknownProduct = "N/A"
	UnknownSerial  = "None/Empty"
	UnknownUSBPath = "N/A"
	UnknownPort    = "Unknown"
)

// DeviceEvent 一次 USB 串口 "add" 通知的归一化快照
// 创建后不可变,路由完即丢弃,从不持久化
type DeviceEvent struct {
	DeviceNode   string // e.g. /dev/ttyUSB0
	VendorID     string // ID_VENDOR_ID
	ProductID    string // ID_MODEL_ID
	SerialNumber string // ID_SERIAL_SHORT
	USBPath      string // ID_PATH 原始字符串
	Port         string // 从 USBPath 推导的物理端口, e.g. "1.2"
}

// LifecycleEvent 宿主打印服务的生命周期事件
// 只关心 Connected / Disconnected / Error 三类
type LifecycleEvent int

const (
	PrinterConnected LifecycleEvent = iota
	PrinterDisconnected
	PrinterError
)

func (e LifecycleEvent) String() string {
	switch e {
	case PrinterConnected:
		return "connected"
	case PrinterDisconnected:
		return "disconnected"
	case PrinterError:
		return "error"
	default:
		return "unknown"
	}
}
