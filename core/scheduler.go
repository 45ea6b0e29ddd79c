package core

// Scheduler multiplexes one hardware countdown timer across a fixed stack of
// relative-time events. Only one event is programmed in hardware at a time;
// the others are kept relative to the last counter reset and renormalized
// (stack update) before every comparison.
//
// Callbacks run with interrupts masked, from OnFired or, for a deadline that
// already elapsed, from AddEvent or Cancel. They must be short and must not
// block. They may call AddEvent or Cancel.
type Scheduler struct {
	drv   TimerDriver
	stack [EventStackSize]slot

	eventCount        uint8
	nextEventPosition uint8
	compare           uint32 // compare value programmed for nextEventPosition
	armed             bool   // nextEventPosition is programmed in hardware
	running           bool   // a fired callback is executing
	stale             bool   // disarmed with a compare match possibly pending

	trace traceRing
}

// slot generations survive the slot being freed, so a handle to an earlier
// occupant never matches the current one
type slot struct {
	event Event
	gen   uint32
}

func (sl *slot) free() bool {
	return sl.event.Callback == nil
}

// NewScheduler creates a scheduler on drv. Init must be called before use.
func NewScheduler(drv TimerDriver) *Scheduler {
	return &Scheduler{drv: drv}
}

// Init sets up the timer peripheral and clears all scheduler state
func (s *Scheduler) Init() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.drv.Init()
	s.drv.DisableInterrupt()
	s.drv.SetHandler(s.OnFired)

	for i := range s.stack {
		s.stack[i].event = Event{}
	}
	s.eventCount = 0
	s.nextEventPosition = 0
	s.compare = 0
	s.armed = false
	s.running = false
	s.stale = false
	s.trace.reset()
}

// AddEvent admits ev into the first free slot. It returns ErrStackFull,
// without touching existing events, when all slots are occupied.
// Unless a callback is currently running, the earliest event is (re)armed.
func (s *Scheduler) AddEvent(ev Event) (Handle, error) {
	if ev.Callback == nil {
		return Handle{}, ErrNilCallback
	}
	if ev.Ticks > CounterMax {
		return Handle{}, ErrDeadlineRange
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if debugEnabled {
		LogStack(LogFwk, "Adding event: t: "+itoa(int(ev.Ticks)))
	}

	h, ok := s.addEventInStack(ev)
	if !ok {
		s.trace.record(TraceStackFull, TraceNoSlot, ev.Ticks, uint32(s.eventCount))
		LogStack(LogFwk, "TIMER: Stack full!")
		return Handle{}, ErrStackFull
	}

	// configure the next event if one is not currently executed
	if !s.running {
		s.schedule()
	}
	return h, nil
}

// Post schedules fn to run after ticks
func (s *Scheduler) Post(fn func(), ticks int32) (Handle, error) {
	return s.AddEvent(Event{Callback: fn, Ticks: ticks})
}

// Cancel withdraws a pending event. It reports false when the event already
// fired or was cancelled.
func (s *Scheduler) Cancel(h Handle) bool {
	if !h.Valid() || int(h.slot) >= EventStackSize {
		return false
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	sl := &s.stack[h.slot]
	if sl.free() || sl.gen != h.gen {
		return false
	}
	sl.event = Event{}
	s.eventCount--
	s.trace.record(TraceCancel, h.slot, 0, uint32(s.eventCount))
	if debugEnabled {
		LogStack(LogFwk, "Event cancelled: pos: "+itoa(int(h.slot)))
	}

	// OnFired re-arms after the running callback returns
	if s.running || !s.armed || h.slot != s.nextEventPosition {
		return true
	}
	s.schedule()
	return true
}

// OnFired is the completion entry point, called by the timer interrupt
// vector on compare match. A match that latched for an event which has since
// been cancelled or replaced is ignored: the hardware counter has not reached
// the programmed compare value yet, or nothing is armed.
func (s *Scheduler) OnFired() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !s.armed || s.drv.Value() <= s.compare {
		if s.eventCount == 0 && !s.stale {
			s.fatal(ErrNoEvents)
		}
		s.stale = false
		s.trace.record(TraceSpurious, TraceNoSlot, int32(s.compare), s.drv.Value())
		return
	}
	if s.eventCount == 0 {
		s.fatal(ErrNoEvents)
	}

	// the compare match is consumed
	s.armed = false

	s.complete(s.nextEventPosition)
	s.schedule()
}

// CurrentTime returns the ticks elapsed since the last counter reset
func (s *Scheduler) CurrentTime() uint32 {
	return s.drv.Value()
}

// Pending returns the number of occupied slots
func (s *Scheduler) Pending() int {
	return int(s.eventCount)
}

// Running reports whether a fired callback is executing
func (s *Scheduler) Running() bool {
	return s.running
}

// Armed returns the slot currently programmed in hardware
func (s *Scheduler) Armed() (int, bool) {
	return int(s.nextEventPosition), s.armed
}

// Remaining returns the ticks left before the event behind h fires
func (s *Scheduler) Remaining(h Handle) (int32, bool) {
	if !h.Valid() || int(h.slot) >= EventStackSize {
		return 0, false
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	sl := &s.stack[h.slot]
	if sl.free() || sl.gen != h.gen {
		return 0, false
	}
	return sl.event.Ticks - int32(s.drv.Value()), true
}

// schedule arms the earliest pending event. Events whose deadline already
// elapsed are completed one after the other until an event is armed or the
// stack is empty.
func (s *Scheduler) schedule() {
	for s.eventCount > 0 {
		pos, armed := s.configureNextEvent()
		if armed {
			return
		}
		s.complete(pos)
	}

	// no stale compare value may refire
	s.disarm()
}

// configureNextEvent selects the earliest event and programs the timer.
// It returns false, leaving the timer alone, when the deadline of the
// selected event has already elapsed.
func (s *Scheduler) configureNextEvent() (uint8, bool) {
	pos := s.getNextEvent()

	// register = number of ticks - 1
	eventTime := s.stack[pos].event.Ticks - 1

	if eventTime <= int32(s.drv.Value()) {
		s.trace.record(TraceElapsed, pos, eventTime, s.drv.Value())
		if debugEnabled {
			LogStack(LogFwk, "Event fired: t: "+itoa(int(eventTime))+" pos: "+itoa(int(pos)))
		}
		return pos, false
	}

	s.drv.DisableInterrupt()
	s.drv.SetCompare(uint32(eventTime))
	s.drv.EnableInterrupt()

	s.nextEventPosition = pos
	s.compare = uint32(eventTime)
	s.armed = true
	s.stale = false

	s.trace.record(TraceArm, pos, eventTime, 0)
	if debugEnabled {
		LogStack(LogFwk, "Event configured: t: "+itoa(int(eventTime))+" pos: "+itoa(int(pos)))
	}
	return pos, true
}

// complete frees the slot at pos and runs its callback
func (s *Scheduler) complete(pos uint8) {
	// to avoid configuring another event while this one executes
	s.running = true

	fn := s.stack[pos].event.Callback
	if fn == nil {
		s.fatal(ErrNextEvent)
	}

	// free the slot before the callback so it can re-admit itself
	s.stack[pos].event = Event{}
	s.eventCount--
	s.trace.record(TraceFire, pos, 0, s.drv.Value())

	fn()

	if debugEnabled {
		LogStack(LogFwk, "Event completed: pos: "+itoa(int(pos)))
	}
	s.running = false
}

// getNextEvent returns the slot with the smallest remaining time.
// On equal times the lowest slot index wins.
func (s *Scheduler) getNextEvent() uint8 {
	if s.eventCount == 0 {
		s.fatal(ErrNoEvents)
	}

	// always update the stack before using it
	s.updateStack()

	var (
		next      uint8
		nextTicks int32
		found     uint8
	)
	for i := range s.stack {
		sl := &s.stack[i]
		if sl.free() {
			continue
		}
		if s.eventCount == 1 {
			return uint8(i)
		}
		if found == 0 || sl.event.Ticks < nextTicks {
			next = uint8(i)
			nextTicks = sl.event.Ticks
		}
		found++
		if found >= s.eventCount {
			return next
		}
	}

	s.fatal(ErrNextEvent)
	return 0
}

// addEventInStack stores ev in the first free slot
func (s *Scheduler) addEventInStack(ev Event) (Handle, bool) {
	for i := range s.stack {
		sl := &s.stack[i]
		if !sl.free() {
			continue
		}

		s.updateStack()

		sl.gen++
		if sl.gen == 0 {
			sl.gen = 1
		}
		sl.event = ev
		s.eventCount++

		s.trace.record(TraceAdmit, uint8(i), ev.Ticks, uint32(s.eventCount))
		return Handle{slot: uint8(i), gen: sl.gen}, true
	}
	return Handle{}, false
}

// updateStack subtracts the elapsed counter value from every pending event
// and resets the counter, so all deadlines are relative to now.
func (s *Scheduler) updateStack() {
	// just reset counter if there is no event
	if s.eventCount == 0 {
		s.drv.ResetCounter()
		return
	}

	elapsed := s.drv.Value()
	s.drv.ResetCounter()

	var updated uint8
	for i := range s.stack {
		sl := &s.stack[i]
		if sl.free() {
			continue
		}
		sl.event.Ticks -= int32(elapsed)

		updated++
		if updated >= s.eventCount {
			s.trace.record(TraceUpdate, TraceNoSlot, 0, elapsed)
			return
		}
	}

	s.fatal(ErrUpdateStack)
}

func (s *Scheduler) disarm() {
	s.drv.DisableInterrupt()
	// the withdrawn compare value may have matched already
	s.stale = s.armed
	s.armed = false
	s.trace.record(TraceDisarm, TraceNoSlot, 0, 0)
}

func (s *Scheduler) fatal(err InvariantError) {
	LogStack(LogFwk, string(err))
	panic(err)
}
