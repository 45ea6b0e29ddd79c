// Package protocol implements the framing used to carry stack log output
// from a sensor node's UART to a host
package protocol

// Version represents the log wire format version
const Version = "0.1.0"

// Frame limits
const (
	LogPayloadMax = 256 // Longest payload carried in one frame; longer messages are truncated

	// sync, type, layer, 1-byte length, 2-byte CRC
	LogFrameMin = 6
	// a full payload needs a 2-byte length
	LogFrameMax = 3 + 2 + LogPayloadMax + 2
	// VLQ never needs more than 5 bytes for a 32-bit value
	vlqMaxLen = 5
)

// Log frame layout:
//
//	0xDD | type | layer | VLQ(len) | payload | CRC16 (big endian)
//
// The CRC covers type through payload.
const (
	LogFrameSync = 0xDD

	LogTypeString = 0x01 // Free-form string, layer unused
	LogTypeData   = 0x02 // Raw bytes
	LogTypeStack  = 0x03 // String tagged with the emitting stack layer
)

// LogFrame is one decoded log record
type LogFrame struct {
	Type    uint8
	Layer   uint8
	Payload []byte
}
