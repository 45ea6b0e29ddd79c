//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks all interrupts and returns the previous state.
// Nested calls are fine: OnFired runs inside AddEvent when a deadline has
// already elapsed.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// interruptsMasked is only meaningful on the host build
func interruptsMasked() bool {
	return false
}
