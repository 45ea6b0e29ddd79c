//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"d7go/core"
)

// RP2040 timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerALARM2   = timerBase + 0x18
	timerARMED    = timerBase + 0x20
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word, no latching
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching
	timerINTR     = timerBase + 0x34
	timerINTE     = timerBase + 0x38

	nvicICPR = 0xE000E280 // NVIC interrupt clear-pending

	alarmNum = 2 // TinyGo's runtime sleeps on alarm 0
	alarmBit = 1 << alarmNum

	usPerSec = 1000000
)

var (
	timerRAWH   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerAlarm  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM2)))
	timerArmed  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	timerIntr   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerIntEna = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
	nvicPending = (*volatile.Register32)(unsafe.Pointer(uintptr(nvicICPR)))
)

// alarmTimer drives the event scheduler from the RP2040's free-running
// 1 MHz timer. The 1024 Hz counter is derived from the microsecond count
// since base; resetting the counter moves base forward by whole ticks.
type alarmTimer struct {
	base    uint64
	handler func()
}

var timer = &alarmTimer{}

func (t *alarmTimer) Init() {
	timerIntEna.ClearBits(alarmBit)
	timerArmed.Set(alarmBit)
	clearPending()

	t.base = uptimeMicros()

	intr := interrupt.New(rp.IRQ_TIMER_IRQ_2, handleAlarm)
	intr.Enable()
}

// Value returns the 1024 Hz ticks since base, 24 bits wide
func (t *alarmTimer) Value() uint32 {
	elapsed := uptimeMicros() - t.base
	return uint32(elapsed*core.TicksPerSec/usPerSec) & core.CounterMax
}

// SetCompare arms alarm 2 for the moment the counter moves past ticks
func (t *alarmTimer) SetCompare(ticks uint32) {
	target := t.base + ticksToMicros(uint64(ticks)+1)

	// the alarm only matches the low word; never arm behind now
	if now := uptimeMicros(); target <= now+1 {
		target = now + 2
	}
	// INTR latches with INTE clear; drop a match of the previous value
	clearPending()
	timerAlarm.Set(uint32(target))
}

func (t *alarmTimer) EnableInterrupt() {
	timerIntEna.SetBits(alarmBit)
}

func (t *alarmTimer) DisableInterrupt() {
	timerIntEna.ClearBits(alarmBit)
	timerArmed.Set(alarmBit)
	clearPending()
}

func (t *alarmTimer) ResetCounter() {
	whole := uint64(t.Value())
	t.base += ticksToMicros(whole)
}

func (t *alarmTimer) SetHandler(handler func()) {
	t.handler = handler
}

func handleAlarm(interrupt.Interrupt) {
	timerIntr.Set(alarmBit)
	if timer.handler != nil {
		timer.handler()
	}
}

// clearPending drops a latched alarm match in the timer and in the NVIC
func clearPending() {
	timerIntr.Set(alarmBit)
	nvicPending.Set(1 << rp.IRQ_TIMER_IRQ_2)
}

func ticksToMicros(ticks uint64) uint64 {
	return (ticks*usPerSec + core.TicksPerSec - 1) / core.TicksPerSec
}

// uptimeMicros reads the full 64-bit timer
func uptimeMicros() uint64 {
	// Read high, low, high again to detect a carry in between
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
