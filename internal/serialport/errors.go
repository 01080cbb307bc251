package serialport

import "errors"

var (
	ErrInvalidBaudRate     = errors.New("invalid baud rate")
	ErrInvalidConfig       = errors.New("invalid serial configuration")
	ErrPortClosed          = errors.New("serial port is closed")
	ErrUnsupportedPlatform = errors.New("serial port not supported on this platform")
)
