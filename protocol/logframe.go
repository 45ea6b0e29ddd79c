package protocol

// AppendLogFrame appends one log frame carrying payload to dst. Payloads
// longer than LogPayloadMax are truncated.
func AppendLogFrame(dst []byte, logType, layer uint8, payload []byte) []byte {
	return appendFrame(dst, logType, layer, payload)
}

// AppendLogString is AppendLogFrame for a text payload
func AppendLogString(dst []byte, logType, layer uint8, msg string) []byte {
	return appendFrame(dst, logType, layer, msg)
}

func appendFrame[P string | []byte](dst []byte, logType, layer uint8, payload P) []byte {
	if len(payload) > LogPayloadMax {
		payload = payload[:LogPayloadMax]
	}

	dst = append(dst, LogFrameSync)
	start := len(dst)

	dst = append(dst, logType, layer)
	dst = AppendVLQ(dst, int32(len(payload)))
	dst = append(dst, payload...)

	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc))
}

// FrameHandler receives each decoded frame. The payload is only valid for
// the duration of the call.
type FrameHandler func(frame LogFrame)

// FrameDecoder reassembles log frames from a byte stream. Bytes outside a
// valid frame are skipped until the next sync byte.
type FrameDecoder struct {
	handler FrameHandler

	frames  uint32 // Frames delivered
	errors  uint32 // Corrupt frames dropped
	skipped uint32 // Bytes discarded while hunting for sync
}

// NewFrameDecoder creates a decoder delivering frames to handler
func NewFrameDecoder(handler FrameHandler) *FrameDecoder {
	return &FrameDecoder{handler: handler}
}

// Receive decodes every complete frame in input and pops the consumed
// bytes. A trailing partial frame is left for the next call.
func (d *FrameDecoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if data[0] != LogFrameSync {
			data = data[1:]
			d.skipped++
			continue
		}

		if len(data) < LogFrameMin {
			break
		}

		logType := data[1]
		if logType < LogTypeString || logType > LogTypeStack {
			d.drop(&data)
			continue
		}

		length, used, err := DecodeVLQ(data[3:])
		if err == ErrBufferTooSmall && len(data)-3 < vlqMaxLen {
			// length field not complete yet
			break
		}
		if err != nil || length < 0 || length > LogPayloadMax {
			d.drop(&data)
			continue
		}

		payloadStart := 3 + used
		frameLen := payloadStart + int(length) + 2
		if len(data) < frameLen {
			break
		}

		frameCRC := uint16(data[frameLen-2])<<8 | uint16(data[frameLen-1])
		if frameCRC != CRC16(data[1:frameLen-2]) {
			d.drop(&data)
			continue
		}

		d.frames++
		if d.handler != nil {
			d.handler(LogFrame{
				Type:    logType,
				Layer:   data[2],
				Payload: data[payloadStart : payloadStart+int(length)],
			})
		}
		data = data[frameLen:]
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// drop discards the sync byte of a corrupt frame so the search restarts
// right after it
func (d *FrameDecoder) drop(data *[]byte) {
	d.errors++
	*data = (*data)[1:]
}

// Frames returns the number of frames delivered
func (d *FrameDecoder) Frames() uint32 {
	return d.frames
}

// Errors returns the number of corrupt frames dropped
func (d *FrameDecoder) Errors() uint32 {
	return d.errors
}

// Skipped returns the number of bytes discarded outside frames
func (d *FrameDecoder) Skipped() uint32 {
	return d.skipped
}
