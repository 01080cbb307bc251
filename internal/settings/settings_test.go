package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	store := NewStore()
	got := store.Snapshot()

	assert.True(t, got.Enabled)
	assert.Equal(t, 2, got.ConnectDelaySeconds)
	assert.Empty(t, got.FilterVendorID)
	assert.Empty(t, got.FilterProductID)
	assert.Empty(t, got.FilterSerial)
	assert.Empty(t, got.FilterPort)
	assert.False(t, got.MessageOnConnect)
	assert.Equal(t, 0, got.SerialBaudRate)
	assert.Equal(t, "http://127.0.0.1:5000", got.OctoPrintURL)
	assert.Empty(t, got.OctoPrintAPIKey)
	assert.Equal(t, 10, got.PollIntervalSeconds)
	assert.Empty(t, got.LogFile)
	assert.Equal(t, 5, got.LogMaxSizeMB)
	assert.Equal(t, 3, got.LogMaxBackups)
	assert.Equal(t, "debug", got.LogLevel)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconnect-guru.yaml")
	content := `
enabled: false
connect_delay_seconds: 5
filter_vendor_id: "1a86"
filter_port: "1.2"
message_on_connect: true
serial:
  baudrate: 250000
octoprint:
  url: "http://octopi.local:5000"
  api_key: "ABCDEF"
  poll_interval_seconds: 30
log:
  file: "/var/log/reconnect-guru/agent.log"
  level: "info"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewStore()
	require.NoError(t, store.Load(path))

	got := store.Snapshot()

	assert.False(t, got.Enabled)
	assert.Equal(t, 5, got.ConnectDelaySeconds)
	assert.Equal(t, "1a86", got.FilterVendorID)
	assert.Equal(t, "1.2", got.FilterPort)
	assert.True(t, got.MessageOnConnect)
	assert.Equal(t, 250000, got.SerialBaudRate)
	assert.Equal(t, "http://octopi.local:5000", got.OctoPrintURL)
	assert.Equal(t, "ABCDEF", got.OctoPrintAPIKey)
	assert.Equal(t, 30, got.PollIntervalSeconds)
	assert.Equal(t, "/var/log/reconnect-guru/agent.log", got.LogFile)
	assert.Equal(t, "info", got.LogLevel)

	// 文件里没写的键保持默认
	assert.Empty(t, got.FilterProductID)
	assert.Equal(t, 5, got.LogMaxSizeMB)
	assert.Equal(t, 3, got.LogMaxBackups)

	assert.Equal(t, path, store.ConfigFile())
}

func TestLoadExplicitFileMissing(t *testing.T) {
	store := NewStore()
	err := store.Load(filepath.Join(t.TempDir(), "definitely-not-there.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RECONNECT_GURU_ENABLED", "false")
	t.Setenv("RECONNECT_GURU_OCTOPRINT_URL", "http://192.168.1.20:5000")
	t.Setenv("RECONNECT_GURU_LOG_LEVEL", "warn")

	store := NewStore()
	got := store.Snapshot()

	assert.False(t, got.Enabled)
	assert.Equal(t, "http://192.168.1.20:5000", got.OctoPrintURL)
	assert.Equal(t, "warn", got.LogLevel)
}

func TestWatchRelaysSavedSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconnect-guru.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filter_vendor_id: \"1a86\"\n"), 0o644))

	store := NewStore()
	require.NoError(t, store.Load(path))

	saved := make(chan Settings, 8)
	store.Watch(func(s Settings) { saved <- s })

	// 保存的同时有连接尝试在读快照,这条热路径必须扛得住并发
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = store.Snapshot()
				time.Sleep(time.Millisecond)
			}
		}
	}()

	require.NoError(t, os.WriteFile(path,
		[]byte("filter_vendor_id: \"2341\"\nconnect_delay_seconds: 7\n"), 0o644))

	// 一次保存可能触发多个文件事件,等携带新值的那次回调
	deadline := time.After(5 * time.Second)
waitSaved:
	for {
		select {
		case got := <-saved:
			if got.FilterVendorID == "2341" && got.ConnectDelaySeconds == 7 {
				break waitSaved
			}
		case <-deadline:
			t.Fatal("watch callback never delivered the saved settings")
		}
	}

	require.Eventually(t, func() bool {
		got := store.Snapshot()
		return got.FilterVendorID == "2341" && got.ConnectDelaySeconds == 7
	}, 5*time.Second, 20*time.Millisecond, "snapshot must reflect the saved file")

	close(stop)
	wg.Wait()
}

func TestWatchWithoutFileIsNoop(t *testing.T) {
	store := NewStore()
	// 没加载任何文件时 Watch 不应 panic,也不应回调
	store.Watch(func(Settings) {
		t.Fatal("unexpected callback without config file")
	})
	time.Sleep(50 * time.Millisecond)
}

func TestDurationHelpers(t *testing.T) {
	s := Settings{ConnectDelaySeconds: 3, PollIntervalSeconds: 15}
	assert.Equal(t, 3*time.Second, s.ConnectDelay())
	assert.Equal(t, 15*time.Second, s.PollInterval())
}
