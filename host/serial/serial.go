// Package serial opens the UART a DASH7 node writes its log frames to.
package serial

import (
	"errors"
	"io"
)

var ErrNoDevice = errors.New("serial: no device given")

// Port is a byte stream to the node. The native implementation wraps
// github.com/tarm/serial; tests substitute an in-memory stream.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read or written
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the node's log UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the UART setup of the firmware targets
const DefaultBaud = 115200

// DefaultConfig returns the configuration the firmware log UART uses
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 0,
	}
}

// Validate checks the configuration before the port is opened
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	return nil
}
