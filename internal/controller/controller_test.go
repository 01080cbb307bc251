package controller

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Hara602/reconnectGuru/internal/filter"
	"github.com/Hara602/reconnectGuru/internal/model"
	"github.com/Hara602/reconnectGuru/internal/settings"
)

type fakeMonitor struct {
	mu       sync.Mutex
	starts   int
	stops    int
	filters  []*filter.Set
	startErr error
}

func (m *fakeMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.starts++
	return nil
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *fakeMonitor) SetFilters(f *filter.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
}

type fakeStore struct{ cfg settings.Settings }

func (f fakeStore) Snapshot() settings.Settings { return f.cfg }

func TestStartupStartsWhenEnabled(t *testing.T) {
	monitor := &fakeMonitor{}
	c := New(fakeStore{cfg: settings.Settings{Enabled: true}}, monitor, zap.NewNop())

	require.NoError(t, c.Startup())
	assert.Equal(t, 1, monitor.starts)
}

func TestStartupSkipsWhenDisabled(t *testing.T) {
	monitor := &fakeMonitor{}
	c := New(fakeStore{cfg: settings.Settings{Enabled: false}}, monitor, zap.NewNop())

	require.NoError(t, c.Startup())
	assert.Zero(t, monitor.starts)
}

func TestStartupPropagatesMonitorError(t *testing.T) {
	monitor := &fakeMonitor{startErr: errors.New("netlink: operation not permitted")}
	c := New(fakeStore{cfg: settings.Settings{Enabled: true}}, monitor, zap.NewNop())

	assert.Error(t, c.Startup())
}

func TestShutdownStopsMonitor(t *testing.T) {
	monitor := &fakeMonitor{}
	c := New(fakeStore{cfg: settings.Settings{Enabled: true}}, monitor, zap.NewNop())

	c.Shutdown()
	assert.Equal(t, 1, monitor.stops)
}

func TestSettingsSavedSwapsFiltersOnly(t *testing.T) {
	monitor := &fakeMonitor{}
	c := New(fakeStore{cfg: settings.Settings{Enabled: true}}, monitor, zap.NewNop())
	require.NoError(t, c.Startup())

	c.SettingsSaved(settings.Settings{
		Enabled:        true,
		FilterVendorID: "1a86",
		FilterPort:     "1.2",
	})

	require.Len(t, monitor.filters, 1)
	matched, _ := monitor.filters[0].Matches("1a86", "7523", "0001", "1.2")
	assert.True(t, matched)
	matched, _ = monitor.filters[0].Matches("2341", "7523", "0001", "1.2")
	assert.False(t, matched)

	// 只换过滤器,不重启监控
	assert.Equal(t, 1, monitor.starts)
	assert.Zero(t, monitor.stops)
}

func TestFiltersFrom(t *testing.T) {
	f := FiltersFrom(settings.Settings{
		FilterVendorID:  " 1a86 ",
		FilterProductID: "7523",
	})
	assert.Equal(t, "vendor=1a86 product=7523 serial=(any) port=(any)", f.String())
}

func TestHostEventLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := New(fakeStore{}, &fakeMonitor{}, zap.New(core))

	c.HostEvent(model.PrinterConnected)
	c.HostEvent(model.PrinterDisconnected)
	c.HostEvent(model.PrinterError)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
}
