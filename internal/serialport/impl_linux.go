//go:build linux

package serialport

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

type ttyPort struct {
	mu     sync.Mutex
	fd     int
	device string
	closed bool
}

var _ Port = (*ttyPort)(nil)

func openPort(device string, config Config) (Port, error) {
	// O_NONBLOCK 防止 open 在载波信号上卡死,配置完再恢复阻塞读写
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := configureTTY(fd, config); err != nil {
		unix.Close(fd)
		return nil, err
	}
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err == nil {
		_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
	}
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("restore blocking mode on %s: %w", device, err)
	}
	return &ttyPort{fd: fd, device: device}, nil
}

// configureTTY 把 tty 配成 raw 模式 8N1 并设置波特率
func configureTTY(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// VMIN=0, VTIME 来自 ReadTimeout (单位 0.1s)
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = uint8(config.ReadTimeout / (100 * time.Millisecond))

	if code, ok := baudConstant(config.BaudRate); ok {
		termios.Cflag = (termios.Cflag &^ unix.CBAUD) | code
		termios.Ispeed = code
		termios.Ospeed = code
		if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
			return fmt.Errorf("set termios: %w", err)
		}
		return nil
	}

	// 非标准波特率走 BOTHER + termios2,Marlin 固件常用 250000
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | unix.BOTHER
	termios.Ispeed = uint32(config.BaudRate)
	termios.Ospeed = uint32(config.BaudRate)
	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, termios); err != nil {
		return fmt.Errorf("set termios2: %w", err)
	}
	return nil
}

// baudConstant 标准波特率到 termios 常量的映射
func baudConstant(rate int) (uint32, bool) {
	switch rate {
	case 1200:
		return unix.B1200, true
	case 2400:
		return unix.B2400, true
	case 4800:
		return unix.B4800, true
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	case 460800:
		return unix.B460800, true
	case 500000:
		return unix.B500000, true
	case 576000:
		return unix.B576000, true
	case 921600:
		return unix.B921600, true
	case 1000000:
		return unix.B1000000, true
	case 1152000:
		return unix.B1152000, true
	case 1500000:
		return unix.B1500000, true
	case 2000000:
		return unix.B2000000, true
	case 2500000:
		return unix.B2500000, true
	case 3000000:
		return unix.B3000000, true
	case 3500000:
		return unix.B3500000, true
	case 4000000:
		return unix.B4000000, true
	default:
		return 0, false
	}
}

func (p *ttyPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return unix.Read(p.fd, buf)
}

func (p *ttyPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	return unix.Write(p.fd, data)
}

func (p *ttyPort) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

func (p *ttyPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	err := unix.Close(p.fd)
	p.closed = true
	return err
}

func (p *ttyPort) Device() string {
	return p.device
}
