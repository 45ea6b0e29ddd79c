package core

// SimTimer is a software model of the countdown timer peripheral, used on the
// host by tests and the scenario simulator. Time only moves when Advance is
// called; the compare interrupt is raised synchronously from Advance.
//
// The counter is 24 bits wide and wraps. A compare value C raises the
// interrupt on the tick that moves the counter from C to C+1, so an event
// programmed as N-1 fires N ticks after the counter was reset.
type SimTimer struct {
	counter    uint32
	compare    uint32
	irqEnabled bool
	handler    func()

	interrupts  uint32 // Interrupts raised since Init
	compareSets uint32 // SetCompare calls since Init
	resets      uint32 // ResetCounter calls since Init
	total       uint64 // Ticks advanced since Init, never reset
}

// NewSimTimer creates a simulated timer
func NewSimTimer() *SimTimer {
	return &SimTimer{}
}

// Init clears all registers and statistics. The handler is kept.
func (t *SimTimer) Init() {
	t.counter = 0
	t.compare = 0
	t.irqEnabled = false
	t.interrupts = 0
	t.compareSets = 0
	t.resets = 0
	t.total = 0
}

func (t *SimTimer) Value() uint32 {
	return t.counter
}

func (t *SimTimer) SetCompare(ticks uint32) {
	t.compare = ticks & CounterMax
	t.compareSets++
}

func (t *SimTimer) EnableInterrupt() {
	t.irqEnabled = true
}

func (t *SimTimer) DisableInterrupt() {
	t.irqEnabled = false
}

func (t *SimTimer) ResetCounter() {
	t.counter = 0
	t.resets++
}

func (t *SimTimer) SetHandler(handler func()) {
	t.handler = handler
}

// Advance lets ticks elapse, raising the compare interrupt every time the
// counter passes the compare value while the interrupt is enabled. The
// handler may reprogram the timer; the remaining ticks use the new settings.
func (t *SimTimer) Advance(ticks uint32) {
	for ticks > 0 {
		if t.irqEnabled {
			dist := ((t.compare - t.counter) & CounterMax) + 1
			if dist <= ticks {
				ticks -= dist
				t.step(dist)
				t.raise()
				continue
			}
		}
		t.step(ticks)
		ticks = 0
	}
}

func (t *SimTimer) step(n uint32) {
	t.counter = (t.counter + n) & CounterMax
	t.total += uint64(n)
}

func (t *SimTimer) raise() {
	t.interrupts++
	if t.handler != nil {
		t.handler()
	}
}

// Compare returns the programmed compare value
func (t *SimTimer) Compare() uint32 {
	return t.compare
}

// InterruptEnabled reports whether the compare interrupt is unmasked
func (t *SimTimer) InterruptEnabled() bool {
	return t.irqEnabled
}

// Interrupts returns the number of interrupts raised since Init
func (t *SimTimer) Interrupts() uint32 {
	return t.interrupts
}

// CompareSets returns the number of SetCompare calls since Init
func (t *SimTimer) CompareSets() uint32 {
	return t.compareSets
}

// Resets returns the number of counter resets since Init
func (t *SimTimer) Resets() uint32 {
	return t.resets
}

// Now returns the total ticks advanced since Init
func (t *SimTimer) Now() uint64 {
	return t.total
}
