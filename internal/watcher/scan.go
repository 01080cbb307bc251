package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hara602/reconnectGuru/internal/model"
)

// ScanSerialDevices 枚举当前已接入的 USB 串口设备
// 和热插拔事件不同,这里只能从 sysfs 读,拿不到 udev 数据库里的属性
func ScanSerialDevices() ([]model.DeviceEvent, error) {
	entries, err := os.ReadDir("/sys/class/tty")
	if err != nil {
		return nil, fmt.Errorf("read /sys/class/tty: %w", err)
	}

	var devices []model.DeviceEvent
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "ttyUSB") && !strings.HasPrefix(name, "ttyACM") {
			continue
		}

		realPath, err := filepath.EvalSymlinks(filepath.Join("/sys/class/tty", name))
		if err != nil {
			continue
		}
		usbRoot := findUSBRoot(realPath)
		if _, err := os.Stat(filepath.Join(usbRoot, "idVendor")); err != nil {
			continue
		}

		devices = append(devices, model.DeviceEvent{
			DeviceNode:   "/dev/" + name,
			VendorID:     readSysfs(filepath.Join(usbRoot, "idVendor"), model.UnknownVendor),
			ProductID:    readSysfs(filepath.Join(usbRoot, "idProduct"), model.UnknownProduct),
			SerialNumber: readSysfs(filepath.Join(usbRoot, "serial"), model.UnknownSerial),
			USBPath:      usbRoot,
			Port:         portFromSysfsRoot(usbRoot),
		})
	}
	return devices, nil
}

// findUSBRoot 向上回溯找包含 idVendor 的目录,也就是 USB 物理设备的根
func findUSBRoot(path string) string {
	dir := path
	// USB 设备一般就在 sysfs 树的上面几层,最多回溯 10 层
	for i := 0; i < 10; i++ {
		dir = filepath.Dir(dir)
		if dir == "/" || dir == "." {
			break
		}
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			return dir
		}
	}
	// 找不到就还回原始路径,后续读取自然落到 fallback
	return path
}

func readSysfs(path, fallback string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	if v := strings.TrimSpace(string(b)); v != "" {
		return v
	}
	return fallback
}

// portFromSysfsRoot sysfs 设备目录名形如 "1-1.2",横杠后面就是端口链
func portFromSysfsRoot(usbRoot string) string {
	base := filepath.Base(usbRoot)
	if i := strings.Index(base, "-"); i > 0 && i+1 < len(base) {
		return base[i+1:]
	}
	return model.UnknownPort
}
