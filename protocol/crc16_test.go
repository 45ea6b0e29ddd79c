package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(empty) = %04X, want FFFF", got)
	}
}

func TestCRC16Incremental(t *testing.T) {
	data := []byte("TIMER: Stack full!")

	whole := CRC16(data)
	split := CRC16Update(CRC16(data[:7]), data[7:])

	if whole != split {
		t.Errorf("Incremental CRC %04X differs from one-shot %04X", split, whole)
	}
}

func TestCRC16Different(t *testing.T) {
	// Test that different inputs produce different outputs
	data1 := []byte{0x01, 0x02, 0x03}
	data2 := []byte{0x01, 0x02, 0x04}

	crc1 := CRC16(data1)
	crc2 := CRC16(data2)

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
