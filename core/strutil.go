package core

// itoa converts an integer to a string without using the fmt package,
// which TinyGo builds of the scheduler avoid
func itoa(n int) string {
	if n < 0 {
		// negate in uint64 so the minimum int does not overflow
		return "-" + u64toa(uint64(-(n+1)) + 1)
	}
	return u64toa(uint64(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	return u64toa(uint64(n))
}

func u64toa(n uint64) string {
	var buf [20]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return string(buf[pos:])
}
