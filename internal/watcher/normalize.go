package watcher

import (
	"strings"

	"github.com/Hara602/reconnectGuru/internal/model"
)

// Normalize 把一条原始 udev 通知转成串口设备事件
// 不是 tty 或者缺设备节点的通知返回 ok=false
func Normalize(n Notification) (model.DeviceEvent, bool) {
	if n.Properties["SUBSYSTEM"] != "tty" {
		return model.DeviceEvent{}, false
	}

	// UEvent Env 示例: DEVNAME=ttyUSB0 或 DEVNAME=/dev/ttyUSB0
	devName := strings.TrimSpace(n.Properties["DEVNAME"])
	if devName == "" {
		return model.DeviceEvent{}, false
	}
	if !strings.HasPrefix(devName, "/dev") {
		devName = "/dev/" + devName
	}

	event := model.DeviceEvent{
		DeviceNode:   devName,
		VendorID:     propOr(n.Properties, "ID_VENDOR_ID", model.UnknownVendor),
		ProductID:    propOr(n.Properties, "ID_MODEL_ID", model.UnknownProduct),
		SerialNumber: propOr(n.Properties, "ID_SERIAL_SHORT", model.UnknownSerial),
		USBPath:      propOr(n.Properties, "ID_PATH", model.UnknownUSBPath),
	}
	event.Port = PortFromUSBPath(event.USBPath)
	return event, true
}

func propOr(props map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(props[key]); v != "" {
		return v
	}
	return fallback
}

// PortFromUSBPath 从 ID_PATH 推导物理端口号
// 形如 platform-3f980000.usb-usb-0:1.2:1.0 的路径按 ":" 切开取第二段,
// 切不出来就是 Unknown
func PortFromUSBPath(usbPath string) string {
	parts := strings.Split(usbPath, ":")
	if len(parts) < 2 {
		return model.UnknownPort
	}
	return parts[1]
}
