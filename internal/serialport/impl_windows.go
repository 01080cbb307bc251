//go:build windows

package serialport

func openPort(device string, config Config) (Port, error) {
	return nil, ErrUnsupportedPlatform
}
