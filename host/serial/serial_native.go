//go:build !tinygo

package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

var ErrOpen = errors.New("serial: cannot open port")

// nodePort is a node UART opened through tarm/serial
type nodePort struct {
	Port
	device  string
	timeout bool // reads return after Config.ReadTimeout
}

// Open validates cfg and opens the port it names
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, ErrNoDevice
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(portOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpen, cfg.Device, err)
	}
	return &nodePort{Port: port, device: cfg.Device, timeout: cfg.ReadTimeout > 0}, nil
}

// portOptions maps cfg onto the 8N1 framing of the firmware UART
func portOptions(cfg *Config) *serial.Config {
	return &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}
}

// Read reports an expired read timeout as an empty read. tarm/serial
// returns io.EOF for it, which a reader would take as the end of the stream.
func (p *nodePort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if p.timeout && n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *nodePort) String() string {
	return p.device
}
