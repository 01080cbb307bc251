//go:build windows

package watcher

import "errors"

type stubSource struct{}

func newSource() Source { return &stubSource{} }

func (s *stubSource) Start() (<-chan Notification, <-chan error, error) {
	return nil, nil, errors.New("usb hotplug monitoring not supported on this platform")
}

func (s *stubSource) Close() error { return nil }
