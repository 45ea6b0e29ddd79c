// Package sensor is the periodic measurement application: it samples a
// temperature and humidity sensor, stores the values in the sensor file and
// hands the file to the action hook for broadcast.
package sensor

import (
	"encoding/binary"
	"errors"
	"strconv"

	"d7go/core"
	"d7go/d7ap"
)

const (
	FileID       = 0x40 // Sensor values
	FileSize     = 8
	ActionFileID = 0x41 // Broadcast action bound to FileID

	UpdateTicks = 10 * core.TicksPerSec
	StartTicks  = core.TicksPerSec // First measurement after boot

	DefaultAccessClass = 0x01
)

var ErrRunning = errors.New("sensor: already running")

// Notifier receives the sensor file after every successful measurement,
// with the session configuration to send it with
type Notifier func(fileID uint8, data []byte, session d7ap.MasterSessionConfig)

// Config holds the application settings
type Config struct {
	Sensor  Sensor
	Battery func() uint32 // Supply voltage in mV, optional
	Notify  Notifier      // Optional

	UpdateTicks int32
	AccessClass uint8
}

// App is the measurement task. The timer callback only requests a
// measurement; the sensor is read by whoever drains Due, normally the main
// loop, so no bus transfer runs with interrupts masked.
type App struct {
	sched   *core.Scheduler
	sensor  Sensor
	battery func() uint32
	notify  Notifier
	period  int32
	session d7ap.MasterSessionConfig

	file         [FileSize]byte
	due          chan uint32 // tick stamp of the pending request
	requestFn    func()
	handle       core.Handle
	running      bool
	measurements uint32
	errors       uint32
	missed       uint32
}

// New creates the application on sched
func New(sched *core.Scheduler, cfg Config) *App {
	if cfg.UpdateTicks <= 0 {
		cfg.UpdateTicks = UpdateTicks
	}
	if cfg.AccessClass == 0 {
		cfg.AccessClass = DefaultAccessClass
	}

	app := &App{
		sched:   sched,
		sensor:  cfg.Sensor,
		battery: cfg.Battery,
		notify:  cfg.Notify,
		period:  cfg.UpdateTicks,
		session: d7ap.BroadcastConfig(cfg.AccessClass),
		due:     make(chan uint32, 1),
	}
	app.requestFn = app.request
	return app
}

// Start schedules the first measurement
func (a *App) Start() error {
	if a.running {
		return ErrRunning
	}

	h, err := a.sched.Post(a.requestFn, StartTicks)
	if err != nil {
		return err
	}
	a.handle = h
	a.running = true

	core.LogStack(core.LogApp, "Device booted")
	return nil
}

// Stop withdraws the pending measurement
func (a *App) Stop() {
	if !a.running {
		return
	}
	a.sched.Cancel(a.handle)
	a.running = false

	select {
	case <-a.due:
	default:
	}
}

// Due delivers the tick stamp of every measurement the timer requested
func (a *App) Due() <-chan uint32 {
	return a.due
}

// Poll runs a requested measurement, if any, without blocking
func (a *App) Poll() bool {
	select {
	case stamp := <-a.due:
		a.Measure(stamp)
		return true
	default:
		return false
	}
}

// Measure samples the sensor and publishes the file stamped with stamp
func (a *App) Measure(stamp uint32) {
	if err := a.sample(stamp); err != nil {
		a.errors++
		core.LogStack(core.LogApp, "Sensor read failed: "+err.Error())
	}
}

// request runs on the timer interrupt
func (a *App) request() {
	select {
	case a.due <- a.sched.CurrentTime():
	default:
		a.missed++
	}

	h, err := a.sched.Post(a.requestFn, a.period)
	if err != nil {
		a.running = false
		core.LogStack(core.LogApp, "Measurement not rescheduled: "+err.Error())
		return
	}
	a.handle = h
}

func (a *App) sample(stamp uint32) error {
	r, err := a.sensor.Read()
	if err != nil {
		return err
	}

	deciC := clamp(r.TempMilliC/100, -32768, 32767)
	deciRH := clamp(int32(r.RHx100)/10, 0, 1000)

	var vdd uint32
	if a.battery != nil {
		vdd = a.battery()
	}

	binary.LittleEndian.PutUint16(a.file[0:], uint16(int16(deciC)))
	binary.LittleEndian.PutUint16(a.file[2:], uint16(deciRH))
	binary.LittleEndian.PutUint16(a.file[4:], uint16(vdd/10))
	binary.LittleEndian.PutUint16(a.file[6:], uint16(stamp))
	a.measurements++

	core.LogStack(core.LogApp, "Ext T: "+formatDeci(deciC)+" C")
	core.LogStack(core.LogApp, "Ext H: "+formatDeci(deciRH))
	core.DebugStack(core.LogApp, "Batt "+strconv.FormatUint(uint64(vdd), 10)+" mV")

	if a.notify != nil {
		a.notify(FileID, a.File(), a.session)
	}
	return nil
}

// File returns a copy of the sensor file
func (a *App) File() []byte {
	out := make([]byte, FileSize)
	copy(out, a.file[:])
	return out
}

// Session returns the configuration the sensor file is broadcast with
func (a *App) Session() d7ap.MasterSessionConfig {
	return a.session
}

// Running reports whether a measurement is scheduled
func (a *App) Running() bool {
	return a.running
}

// Measurements returns the number of successful samples
func (a *App) Measurements() uint32 {
	return a.measurements
}

// Errors returns the number of failed samples
func (a *App) Errors() uint32 {
	return a.errors
}

// Missed returns the number of requests dropped because the previous one
// was still waiting
func (a *App) Missed() uint32 {
	return a.missed
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// formatDeci renders a value in tenths as "12.3"
func formatDeci(v int32) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + strconv.Itoa(int(v/10)) + "." + strconv.Itoa(int(v%10))
}
