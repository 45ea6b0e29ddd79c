package protocol

// InputBuffer is the view of received bytes the frame decoder works on
type InputBuffer interface {
	// Data returns the unconsumed bytes
	Data() []byte

	// Available returns len(Data())
	Available() int

	// Pop consumes n bytes from the front
	Pop(n int)
}

// StreamBuffer holds received bytes until the decoder consumes them. The
// content is kept contiguous: when a write does not fit behind it, the
// unconsumed bytes are moved to the front first.
type StreamBuffer struct {
	buf        []byte
	head, tail int
}

// NewStreamBuffer creates a buffer holding at most size bytes
func NewStreamBuffer(size int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, size)}
}

// Write stores as much of data as fits and returns the count stored
func (b *StreamBuffer) Write(data []byte) int {
	if len(data) > len(b.buf)-b.tail && b.head > 0 {
		b.tail = copy(b.buf, b.buf[b.head:b.tail])
		b.head = 0
	}
	n := copy(b.buf[b.tail:], data)
	b.tail += n
	return n
}

func (b *StreamBuffer) Data() []byte {
	return b.buf[b.head:b.tail]
}

func (b *StreamBuffer) Available() int {
	return b.tail - b.head
}

// Free returns how many more bytes Write accepts
func (b *StreamBuffer) Free() int {
	return len(b.buf) - b.Available()
}

func (b *StreamBuffer) Pop(n int) {
	if n >= b.Available() {
		b.head, b.tail = 0, 0
		return
	}
	b.head += n
}
