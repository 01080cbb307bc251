package serialport

import "time"

// DefaultBaudRate 宿主没给波特率时的回退值
const DefaultBaudRate = 115200

// Port 一条已打开的串口连接
type Port interface {
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	WriteString(s string) (int, error)
	Close() error
	Device() string
}

// Config 串口参数,固定 raw 模式 8N1
type Config struct {
	BaudRate    int
	ReadTimeout time.Duration // VTIME 粒度 0.1s,最大 25.5s
}

// Option 函数式配置
type Option func(*Config) error

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: 2 * time.Second,
	}
}

// WithBaudRate 设置波特率
// 标准值直接映射 termios 常量,其余正值走 BOTHER (比如 Marlin 常用的 250000)
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithReadTimeout 设置读超时
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 || d > 255*100*time.Millisecond {
			return ErrInvalidConfig
		}
		c.ReadTimeout = d
		return nil
	}
}

// Open 打开并配置串口设备
func Open(device string, opts ...Option) (Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	return openPort(device, config)
}
