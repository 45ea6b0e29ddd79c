package core

import "errors"

// Timer tick constants. The DASH7 stack counts in 1/1024 s ticks off a
// 32.768 kHz crystal prescaled by 32.
const (
	TicksPerSec = 1024
	CounterMax  = 0xFFFFFF // 24-bit counter range

	EventStackSize = 20 // Number of event slots
)

var (
	ErrStackFull     = errors.New("timer: event stack full")
	ErrNilCallback   = errors.New("timer: nil event callback")
	ErrDeadlineRange = errors.New("timer: deadline beyond counter range")
	ErrNoScheduler   = errors.New("timer: scheduler not initialized")
)

// InvariantError is the value the scheduler panics with when its state is
// structurally impossible. Scheduling must not continue after one.
type InvariantError string

func (e InvariantError) Error() string { return string(e) }

const (
	ErrNoEvents    InvariantError = "TIMER: No events in stack!"
	ErrNextEvent   InvariantError = "TIMER: error getting next event."
	ErrUpdateStack InvariantError = "TIMER: error updating stack."
)

// Event is a callback to run after Ticks timer ticks.
// Ticks is relative to the last stack update, never an absolute time.
type Event struct {
	Callback func()
	Ticks    int32
}

// Handle identifies an admitted event so it can be cancelled.
// The generation guards against a slot that fired and was reused.
type Handle struct {
	slot uint8
	gen  uint32
}

// Valid reports whether h was returned by a successful admission
func (h Handle) Valid() bool {
	return h.gen != 0
}

// Slot returns the event stack position the handle refers to
func (h Handle) Slot() int {
	return int(h.slot)
}

var defaultScheduler *Scheduler

// TimerInit creates and initializes the process-wide scheduler on drv.
// Firmware targets call this once at boot.
func TimerInit(drv TimerDriver) *Scheduler {
	s := NewScheduler(drv)
	s.Init()
	defaultScheduler = s
	return s
}

// DefaultScheduler returns the scheduler installed by TimerInit (nil before)
func DefaultScheduler() *Scheduler {
	return defaultScheduler
}

// GetTime returns the ticks elapsed on the default scheduler's timer
func GetTime() uint32 {
	if defaultScheduler == nil {
		return 0
	}
	return defaultScheduler.CurrentTime()
}

// PostTaskDelay schedules fn on the default scheduler after ticks
func PostTaskDelay(fn func(), ticks int32) (Handle, error) {
	if defaultScheduler == nil {
		return Handle{}, ErrNoScheduler
	}
	return defaultScheduler.Post(fn, ticks)
}

// TicksFromMS converts milliseconds to timer ticks
func TicksFromMS(ms uint32) int32 {
	return int32((uint64(ms) * TicksPerSec) / 1000)
}

// TicksToMS converts timer ticks to milliseconds
func TicksToMS(ticks uint32) uint32 {
	return uint32((uint64(ticks) * 1000) / TicksPerSec)
}
