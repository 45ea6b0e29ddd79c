package core

// TimerDriver is the interface for the single hardware countdown timer the
// scheduler multiplexes. Platform-specific implementations provide this
// (RP2040 alarm, simulated timer for host tests).
type TimerDriver interface {
	// Init performs one-time peripheral setup
	Init()

	// Value returns the ticks elapsed since the last ResetCounter
	Value() uint32

	// SetCompare programs the compare register for the next interrupt
	SetCompare(ticks uint32)

	// EnableInterrupt unmasks the compare interrupt
	EnableInterrupt()

	// DisableInterrupt masks the compare interrupt
	DisableInterrupt()

	// ResetCounter zeroes the counter. It does not disarm the interrupt.
	ResetCounter()

	// SetHandler installs the function the interrupt vector calls on compare match
	SetHandler(handler func())
}
