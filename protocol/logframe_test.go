package protocol

import (
	"bytes"
	"testing"
)

type frameCollector struct {
	frames []LogFrame
}

func (c *frameCollector) handle(f LogFrame) {
	// payload aliases the decoder input; keep a copy
	f.Payload = append([]byte(nil), f.Payload...)
	c.frames = append(c.frames, f)
}

func encodeFrame(logType, layer uint8, payload string) []byte {
	return AppendLogString(nil, logType, layer, payload)
}

func TestLogFrameLayout(t *testing.T) {
	frame := encodeFrame(LogTypeStack, 0x10, "hi")

	if frame[0] != LogFrameSync || frame[1] != LogTypeStack || frame[2] != 0x10 {
		t.Fatalf("Unexpected header % X", frame[:3])
	}
	if frame[3] != 2 || string(frame[4:6]) != "hi" {
		t.Fatalf("Unexpected length/payload % X", frame[3:6])
	}
	crc := CRC16(frame[1:6])
	if frame[6] != byte(crc>>8) || frame[7] != byte(crc) {
		t.Errorf("CRC mismatch: frame has %02X%02X, want %04X", frame[6], frame[7], crc)
	}
	if len(frame) != 8 {
		t.Errorf("Expected 8-byte frame, got %d", len(frame))
	}
}

func TestFrameDecoderStream(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x00, 0x42) // line noise before the first frame
	stream = append(stream, encodeFrame(LogTypeStack, 0x10, "Adding event: t: 50")...)
	stream = append(stream, encodeFrame(LogTypeString, 0, "started")...)
	stream = append(stream, 0x13)
	stream = append(stream, encodeFrame(LogTypeData, 0x20, string([]byte{1, 2, 3}))...)

	c := &frameCollector{}
	dec := NewFrameDecoder(c.handle)

	// feed one byte at a time, as a slow UART would
	in := NewStreamBuffer(64)
	for _, b := range stream {
		in.Write([]byte{b})
		dec.Receive(in)
	}

	if len(c.frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(c.frames))
	}
	if c.frames[0].Layer != 0x10 || string(c.frames[0].Payload) != "Adding event: t: 50" {
		t.Errorf("Frame 0 mismatch: %+v", c.frames[0])
	}
	if c.frames[1].Type != LogTypeString || string(c.frames[1].Payload) != "started" {
		t.Errorf("Frame 1 mismatch: %+v", c.frames[1])
	}
	if c.frames[2].Type != LogTypeData || !bytes.Equal(c.frames[2].Payload, []byte{1, 2, 3}) {
		t.Errorf("Frame 2 mismatch: %+v", c.frames[2])
	}
	if dec.Skipped() != 3 {
		t.Errorf("Expected 3 skipped bytes, got %d", dec.Skipped())
	}
	if in.Available() != 0 {
		t.Errorf("Expected all input consumed, %d bytes left", in.Available())
	}
}

func TestFrameDecoderCorruptCRC(t *testing.T) {
	bad := encodeFrame(LogTypeStack, 0x10, "corrupted")
	bad[5] ^= 0xFF
	good := encodeFrame(LogTypeStack, 0x10, "intact")

	c := &frameCollector{}
	dec := NewFrameDecoder(c.handle)
	dec.Receive(&sliceInput{append(bad, good...)})

	if len(c.frames) != 1 || string(c.frames[0].Payload) != "intact" {
		t.Fatalf("Expected only the intact frame, got %+v", c.frames)
	}
	if dec.Errors() != 1 {
		t.Errorf("Expected 1 error, got %d", dec.Errors())
	}
}

func TestFrameDecoderPartial(t *testing.T) {
	frame := encodeFrame(LogTypeStack, 0x10, "Event completed")

	c := &frameCollector{}
	dec := NewFrameDecoder(c.handle)

	in := &sliceInput{frame[:len(frame)-1]}
	dec.Receive(in)
	if len(c.frames) != 0 {
		t.Fatal("Decoded a frame from partial input")
	}
	if in.Available() != len(frame)-1 {
		t.Errorf("Partial frame consumed: %d bytes left", in.Available())
	}

	dec.Receive(&sliceInput{frame})
	if len(c.frames) != 1 {
		t.Fatalf("Expected 1 frame after completion, got %d", len(c.frames))
	}
}

func TestFrameDecoderUnknownType(t *testing.T) {
	frame := encodeFrame(LogTypeStack, 0x10, "x")
	frame[1] = 0x7F

	dec := NewFrameDecoder(nil)
	dec.Receive(&sliceInput{frame})
	if dec.Frames() != 0 || dec.Errors() != 1 {
		t.Errorf("Expected 0 frames and 1 error, got %d/%d", dec.Frames(), dec.Errors())
	}
}

func TestLogFrameAppends(t *testing.T) {
	dst := []byte{0x01, 0x02}
	got := AppendLogFrame(dst, LogTypeData, 0x20, []byte{0xDD})
	if !bytes.Equal(got[:2], []byte{0x01, 0x02}) {
		t.Fatalf("Existing content overwritten: % X", got[:2])
	}
	if !bytes.Equal(got[2:], encodeFrame(LogTypeData, 0x20, "\xdd")) {
		t.Errorf("Byte and string payloads encode differently: % X", got[2:])
	}
}

func TestLogFrameTruncatesPayload(t *testing.T) {
	long := bytes.Repeat([]byte{'x'}, LogPayloadMax+40)

	frame := AppendLogFrame(nil, LogTypeString, 0, long)
	if len(frame) != LogFrameMax {
		t.Errorf("Expected a %d-byte frame, got %d", LogFrameMax, len(frame))
	}

	c := &frameCollector{}
	NewFrameDecoder(c.handle).Receive(&sliceInput{frame})
	if len(c.frames) != 1 || len(c.frames[0].Payload) != LogPayloadMax {
		t.Fatalf("Expected one frame with %d bytes", LogPayloadMax)
	}
}
