package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings 一次完整的设置快照,取出后不可变
// 过滤字段为空串表示通配
type Settings struct {
	Enabled             bool
	ConnectDelaySeconds int
	FilterVendorID      string
	FilterProductID     string
	FilterSerial        string
	FilterPort          string
	MessageOnConnect    bool

	// 宿主未上报波特率时的本地回退值,0 表示用内置默认
	SerialBaudRate int

	OctoPrintURL        string
	OctoPrintAPIKey     string
	PollIntervalSeconds int

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogLevel      string
}

// ConnectDelay 连接前的稳定等待时长
func (s Settings) ConnectDelay() time.Duration {
	return time.Duration(s.ConnectDelaySeconds) * time.Second
}

// PollInterval 宿主状态轮询周期
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// Store 基于 viper 的设置存储
// 启动时读一次,之后靠 Watch 在配置文件保存时推送新快照。
// WatchConfig 的 goroutine 每次保存都会重写 viper 内部配置表,
// 所以 Snapshot 只读 mu 保护的缓存,viper 本体只在 Load 和 watch 回调里访问
type Store struct {
	mu     sync.Mutex
	v      *viper.Viper
	file   string
	cached Settings
}

// NewStore 创建带默认值的存储
func NewStore() *Store {
	v := viper.New()

	v.SetDefault("enabled", true)
	v.SetDefault("connect_delay_seconds", 2)
	v.SetDefault("filter_vendor_id", "")
	v.SetDefault("filter_product_id", "")
	v.SetDefault("filter_serial", "")
	v.SetDefault("filter_port", "")
	v.SetDefault("message_on_connect", false)
	v.SetDefault("serial.baudrate", 0)
	v.SetDefault("octoprint.url", "http://127.0.0.1:5000")
	v.SetDefault("octoprint.api_key", "")
	v.SetDefault("octoprint.poll_interval_seconds", 10)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.level", "debug")

	v.SetEnvPrefix("reconnect_guru")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Store{v: v, cached: readSettings(v)}
}

// Load 读取配置文件
// path 为空时在常规位置查找 reconnect-guru.yaml,找不到就全用默认值;
// 显式给了 path 则文件必须可读。
func (s *Store) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path != "" {
		s.v.SetConfigFile(path)
		if err := s.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		s.v.SetConfigName("reconnect-guru")
		s.v.SetConfigType("yaml")
		s.v.AddConfigPath("/etc/reconnect-guru")
		s.v.AddConfigPath("$HOME/.config/reconnect-guru")
		s.v.AddConfigPath(".")

		err := s.v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	s.file = s.v.ConfigFileUsed()
	s.cached = readSettings(s.v)
	return nil
}

// Snapshot 取当前设置的一份拷贝
func (s *Store) Snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

// ConfigFile 实际生效的配置文件路径,没有文件时为空串
func (s *Store) ConfigFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Watch 监听配置文件保存,每次保存后用新快照回调 fn
// 没有配置文件时是 no-op (纯默认值运行,不存在"保存"事件)
func (s *Store) Watch(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == "" {
		return
	}
	s.v.OnConfigChange(func(fsnotify.Event) {
		// 回调跑在 viper 自己的 watch goroutine 上,此时重读已经完成
		s.mu.Lock()
		s.cached = readSettings(s.v)
		snap := s.cached
		s.mu.Unlock()
		fn(snap)
	})
	s.v.WatchConfig()
}

func readSettings(v *viper.Viper) Settings {
	return Settings{
		Enabled:             v.GetBool("enabled"),
		ConnectDelaySeconds: v.GetInt("connect_delay_seconds"),
		FilterVendorID:      v.GetString("filter_vendor_id"),
		FilterProductID:     v.GetString("filter_product_id"),
		FilterSerial:        v.GetString("filter_serial"),
		FilterPort:          v.GetString("filter_port"),
		MessageOnConnect:    v.GetBool("message_on_connect"),
		SerialBaudRate:      v.GetInt("serial.baudrate"),
		OctoPrintURL:        v.GetString("octoprint.url"),
		OctoPrintAPIKey:     v.GetString("octoprint.api_key"),
		PollIntervalSeconds: v.GetInt("octoprint.poll_interval_seconds"),
		LogFile:             v.GetString("log.file"),
		LogMaxSizeMB:        v.GetInt("log.max_size_mb"),
		LogMaxBackups:       v.GetInt("log.max_backups"),
		LogLevel:            v.GetString("log.level"),
	}
}
