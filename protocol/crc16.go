package protocol

// CRC16 calculates the CRC16-CCITT (Klipper variant, init 0xFFFF) checksum
// protecting each log frame
func CRC16(data []byte) uint16 {
	return CRC16Update(0xFFFF, data)
}

// CRC16Update folds data into a running checksum, so a frame can be
// checksummed while it is being written
func CRC16Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
