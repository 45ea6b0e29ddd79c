package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// AppendVLQ appends v in the Klipper VLQ format, most significant group
// first. Values in [-32, 96) take a single byte.
func AppendVLQ(dst []byte, v int32) []byte {
	for shift := 28; shift > 0; shift -= 7 {
		lo, hi := int32(-1)<<(shift-2), int32(3)<<(shift-2)
		if v < lo || v >= hi {
			dst = append(dst, byte(v>>shift)&0x7F|0x80)
		}
	}
	return append(dst, byte(v)&0x7F)
}

// DecodeVLQ decodes the value at the start of data and returns it with the
// number of bytes it took. A truncated value yields ErrBufferTooSmall; more
// than five bytes is ErrInvalidVLQ.
func DecodeVLQ(data []byte) (int32, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrBufferTooSmall
	}

	c := data[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		// sign extend
		v |= ^uint32(0x1F)
	}

	n := 1
	for c&0x80 != 0 {
		if n == vlqMaxLen {
			return 0, 0, ErrInvalidVLQ
		}
		if n == len(data) {
			return 0, 0, ErrBufferTooSmall
		}
		c = data[n]
		n++
		v = v<<7 | uint32(c&0x7F)
	}
	return int32(v), n, nil
}
