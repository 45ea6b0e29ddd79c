package core

import (
	"io"

	"d7go/protocol"
)

// Layer identifies the stack layer a log message comes from
type Layer uint8

// Stack layers, numbered as on the DASH7 log wire
const (
	LogPhy   Layer = 0x01
	LogDLL   Layer = 0x02
	LogMAC   Layer = 0x03
	LogNWL   Layer = 0x04
	LogTrans Layer = 0x05
	LogFwk   Layer = 0x10
	LogApp   Layer = 0x20
)

// String returns the short layer tag
func (l Layer) String() string {
	switch l {
	case LogPhy:
		return "PHY"
	case LogDLL:
		return "DLL"
	case LogMAC:
		return "MAC"
	case LogNWL:
		return "NWL"
	case LogTrans:
		return "TRANS"
	case LogFwk:
		return "FWK"
	case LogApp:
		return "APP"
	}
	return "L" + utoa(uint32(l))
}

// LogWriter is a function type for writing layer-tagged log messages
type LogWriter func(layer Layer, msg string)

// DataWriter writes a layer-tagged binary dump
type DataWriter func(layer Layer, data []byte)

var (
	// logWriter is the global log output (set by platform code)
	logWriter  LogWriter  = func(Layer, string) {} // No-op by default
	dataWriter DataWriter = func(Layer, []byte) {}

	// debugEnabled gates the verbose scheduler trace messages.
	// Errors such as a full stack are always written.
	debugEnabled bool = false
)

// SetLogWriter sets the platform-specific log output function.
// Passing nil silences all output.
func SetLogWriter(writer LogWriter) {
	if writer == nil {
		writer = func(Layer, string) {}
	}
	logWriter = writer
}

// SetDataWriter sets the output for binary dumps. Passing nil drops them.
func SetDataWriter(writer DataWriter) {
	if writer == nil {
		writer = func(Layer, []byte) {}
	}
	dataWriter = writer
}

// SetDebugEnabled enables or disables verbose output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether verbose output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// LogStack writes msg on behalf of layer
func LogStack(layer Layer, msg string) {
	logWriter(layer, msg)
}

// DebugStack writes msg only when debug output is enabled
func DebugStack(layer Layer, msg string) {
	if debugEnabled {
		logWriter(layer, msg)
	}
}

// LogData writes a binary dump on behalf of layer
func LogData(layer Layer, data []byte) {
	dataWriter(layer, data)
}

// frameBuffers is the number of frames that may be in flight on one writer:
// a frame logged from the timer interrupt while another one is being
// written takes the next buffer
const frameBuffers = 4

type frameRing struct {
	bufs [frameBuffers][protocol.LogFrameMax]byte
	next int
}

// claim returns an empty frame buffer; interrupts must be masked
func (r *frameRing) claim() []byte {
	b := r.bufs[r.next][:0]
	r.next = (r.next + 1) % frameBuffers
	return b
}

// FrameLogWriter returns a LogWriter that encodes every message as a stack
// log frame on w (typically the UART). Frames are encoded with interrupts
// masked and written with them restored. Write errors are dropped: there is
// nowhere left to report them.
func FrameLogWriter(w io.Writer) LogWriter {
	r := &frameRing{}
	return func(layer Layer, msg string) {
		state := disableInterrupts()
		frame := protocol.AppendLogString(r.claim(), protocol.LogTypeStack, uint8(layer), msg)
		restoreInterrupts(state)

		_, _ = w.Write(frame)
	}
}

// FrameDataWriter is FrameLogWriter for binary dumps
func FrameDataWriter(w io.Writer) DataWriter {
	r := &frameRing{}
	return func(layer Layer, data []byte) {
		state := disableInterrupts()
		frame := protocol.AppendLogFrame(r.claim(), protocol.LogTypeData, uint8(layer), data)
		restoreInterrupts(state)

		_, _ = w.Write(frame)
	}
}

// TraceKind is the kind of a scheduler trace record
type TraceKind uint8

// Trace kinds
const (
	TraceAdmit     TraceKind = 1 // Event stored in a slot
	TraceStackFull TraceKind = 2 // Admission rejected
	TraceUpdate    TraceKind = 3 // Stack renormalized
	TraceArm       TraceKind = 4 // Compare register programmed
	TraceElapsed   TraceKind = 5 // Deadline already passed at arm time
	TraceFire      TraceKind = 6 // Event removed and callback invoked
	TraceDisarm    TraceKind = 7 // Interrupt disabled, stack empty
	TraceCancel    TraceKind = 8 // Event withdrawn
	TraceSpurious  TraceKind = 9 // Interrupt ahead of the armed compare value
)

// TraceNoSlot marks records not tied to a slot
const TraceNoSlot = 0xFF

const (
	TraceSize = 32 // Keep last 32 records for post-mortem
)

func (k TraceKind) String() string {
	switch k {
	case TraceAdmit:
		return "ADMIT"
	case TraceStackFull:
		return "STACK_FULL!"
	case TraceUpdate:
		return "UPDATE"
	case TraceArm:
		return "ARM"
	case TraceElapsed:
		return "ELAPSED"
	case TraceFire:
		return "FIRE"
	case TraceDisarm:
		return "DISARM"
	case TraceCancel:
		return "CANCEL"
	case TraceSpurious:
		return "SPURIOUS"
	}
	return "UNKNOWN"
}

// TraceEvent captures a scheduler decision for post-mortem analysis
type TraceEvent struct {
	Kind  TraceKind
	Slot  uint8  // Event stack position or TraceNoSlot
	Ticks int32  // Deadline or armed compare value
	Value uint32 // Context-dependent: event count, counter value, elapsed ticks
}

// traceRing is a non-blocking ring of the latest trace records
type traceRing struct {
	buf  [TraceSize]TraceEvent
	head uint8 // Next write position
	n    uint8
}

func (r *traceRing) record(kind TraceKind, slot uint8, ticks int32, value uint32) {
	r.buf[r.head] = TraceEvent{Kind: kind, Slot: slot, Ticks: ticks, Value: value}
	r.head = (r.head + 1) % TraceSize
	if r.n < TraceSize {
		r.n++
	}
}

func (r *traceRing) reset() {
	for i := range r.buf {
		r.buf[i] = TraceEvent{}
	}
	r.head = 0
	r.n = 0
}

// Trace returns the recorded trace, oldest first
func (s *Scheduler) Trace() []TraceEvent {
	r := &s.trace
	out := make([]TraceEvent, 0, r.n)
	start := (r.head + TraceSize - r.n) % TraceSize
	for i := uint8(0); i < r.n; i++ {
		out = append(out, r.buf[(start+i)%TraceSize])
	}
	return out
}

// ClearTrace empties the trace ring
func (s *Scheduler) ClearTrace() {
	s.trace.reset()
}

// DumpTrace writes the trace ring to the log (call on shutdown/error)
func (s *Scheduler) DumpTrace() {
	LogStack(LogFwk, "[TRACE] === Timer Trace Dump ===")
	for _, evt := range s.Trace() {
		line := "[TRACE] " + evt.Kind.String()
		if evt.Slot != TraceNoSlot {
			line += " pos=" + utoa(uint32(evt.Slot))
		}
		line += " t=" + itoa(int(evt.Ticks)) + " v=" + utoa(evt.Value)
		LogStack(LogFwk, line)
	}
	LogStack(LogFwk, "[TRACE] === End Dump ===")
}
