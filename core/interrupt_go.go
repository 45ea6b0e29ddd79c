//go:build !tinygo

package core

// State is the saved mask depth on regular Go
type State uintptr

// maskDepth counts nested critical sections. The simulated timer raises its
// interrupt synchronously from Advance, so nothing can preempt a masked
// sequence on the host; the depth is kept so tests can check the pairing.
var maskDepth uintptr

// disableInterrupts enters a critical section
func disableInterrupts() State {
	prev := maskDepth
	maskDepth++
	return State(prev)
}

// restoreInterrupts leaves the critical section entered by disableInterrupts
func restoreInterrupts(state State) {
	maskDepth = uintptr(state)
}

// interruptsMasked reports whether a critical section is open
func interruptsMasked() bool {
	return maskDepth != 0
}
