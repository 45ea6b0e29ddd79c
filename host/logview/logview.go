// Package logview decodes the log frame stream a node writes to its UART.
package logview

import (
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"time"

	"d7go/core"
	"d7go/protocol"
)

var ErrStopped = errors.New("logview: monitor stopped")

// Message is one decoded log frame
type Message struct {
	Type  uint8
	Layer core.Layer
	Data  []byte // Copy of the frame payload
}

// String renders the message the way the console prints it
func (m Message) String() string {
	prefix := "[" + m.Layer.String() + "] "
	if m.Type == protocol.LogTypeData {
		return prefix + hex.EncodeToString(m.Data)
	}
	return prefix + string(m.Data)
}

// Handler receives every decoded message. It runs with the monitor locked
// and must not call back into it.
type Handler func(msg Message)

// Stats counts what the monitor has seen
type Stats struct {
	Bytes   uint64
	Frames  uint32
	Errors  uint32
	Skipped uint32
	Dropped uint32 // Bytes discarded because the input buffer was full
}

// Monitor reads from a port and hands decoded log frames to a handler
type Monitor struct {
	port    io.ReadCloser
	handler Handler

	mu      sync.Mutex
	in      *protocol.StreamBuffer
	dec     *protocol.FrameDecoder
	bytes   uint64
	dropped uint32

	stopOnce sync.Once
	stopChan chan struct{}
}

// InputBufferSize is the reassembly buffer size, room for a few frames
const InputBufferSize = 1024

// NewMonitor creates a monitor on port. It does not start reading.
func NewMonitor(port io.ReadCloser, handler Handler) *Monitor {
	m := &Monitor{
		port:     port,
		handler:  handler,
		in:       protocol.NewStreamBuffer(InputBufferSize),
		stopChan: make(chan struct{}),
	}
	m.dec = protocol.NewFrameDecoder(m.deliver)
	return m
}

// Run reads until the port reports EOF or Stop is called
func (m *Monitor) Run() error {
	buffer := make([]byte, 256)

	for {
		select {
		case <-m.stopChan:
			return ErrStopped
		default:
		}

		n, err := m.port.Read(buffer)
		if n > 0 {
			m.Feed(buffer[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			select {
			case <-m.stopChan:
				return ErrStopped
			default:
			}
			// transient read error, try again
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Feed pushes raw bytes through the decoder
func (m *Monitor) Feed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bytes += uint64(len(data))
	for len(data) > 0 {
		n := m.in.Write(data)
		data = data[n:]
		m.dec.Receive(m.in)

		// nothing decodable in a full buffer: give up its oldest byte
		if len(data) > 0 && m.in.Free() == 0 {
			m.in.Pop(1)
			m.dropped++
		}
	}
}

func (m *Monitor) deliver(frame protocol.LogFrame) {
	if m.handler == nil {
		return
	}
	data := make([]byte, len(frame.Payload))
	copy(data, frame.Payload)
	m.handler(Message{
		Type:  frame.Type,
		Layer: core.Layer(frame.Layer),
		Data:  data,
	})
}

// Stop ends Run and closes the port
func (m *Monitor) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stopChan)
		err = m.port.Close()
	})
	return err
}

// Stats returns the current counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Bytes:   m.bytes,
		Frames:  m.dec.Frames(),
		Errors:  m.dec.Errors(),
		Skipped: m.dec.Skipped(),
		Dropped: m.dropped,
	}
}
